package config

// HierarchyConfig is the top-level YAML structure.
type HierarchyConfig struct {
	Version string     `yaml:"version" json:"version"`
	Root    string     `yaml:"root" json:"root,omitempty"` // optional universal ancestor, e.g. "object"
	Engine  EngineConf `yaml:"engine" json:"-"`
	Classes []ClassDef `yaml:"classes" json:"classes"`
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	Workers          int `yaml:"workers"`
	QueueDepth       int `yaml:"queue_depth"`
	RequestTimeoutMs int `yaml:"request_timeout_ms"`
}

// ClassDef declares one class. Bases are kept in declaration order.
type ClassDef struct {
	Name    string      `yaml:"name" json:"name"`
	Bases   []string    `yaml:"bases" json:"bases"`
	Methods []MethodDef `yaml:"methods" json:"methods,omitempty"`
}

// MethodDef declares an operation defined directly on a class.
// Super marks an implementation that forwards to the next class in order.
type MethodDef struct {
	Name  string `yaml:"name" json:"name"`
	Super bool   `yaml:"super" json:"super"`
}
