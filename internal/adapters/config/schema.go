package config

// PipelineFile represents the structure of a kiln pipeline file.
type PipelineFile struct {
	Name        string            `yaml:"name" toml:"name"`
	Environment map[string]string `yaml:"environment" toml:"environment"`
	Steps       []StepDTO         `yaml:"steps" toml:"steps"`
}

// StepDTO represents a step definition in the pipeline file.
type StepDTO struct {
	Name         string            `yaml:"name" toml:"name"`
	Dir          string            `yaml:"dir" toml:"dir"`
	Environment  map[string]string `yaml:"environment" toml:"environment"`
	Cmd          string            `yaml:"cmd" toml:"cmd"`
	Args         []string          `yaml:"args" toml:"args"`
	AllowFailure bool              `yaml:"allowFailure" toml:"allowFailure"`
	Optional     bool              `yaml:"optional" toml:"optional"`
	Outputs      []string          `yaml:"outputs" toml:"outputs"`
	Clean        []string          `yaml:"clean" toml:"clean"`
	Git          *GitDTO           `yaml:"git" toml:"git"`
	Steps        []StepDTO         `yaml:"steps" toml:"steps"`
}

// GitDTO represents a repository operation in the pipeline file.
type GitDTO struct {
	Action     string `yaml:"action" toml:"action"`
	Ref        string `yaml:"ref" toml:"ref"`
	Message    string `yaml:"message" toml:"message"`
	Name       string `yaml:"name" toml:"name"`
	Submodules bool   `yaml:"submodules" toml:"submodules"`
}
