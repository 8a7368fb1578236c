package domain

// RunSettings are the saved options used to start a container from an image.
type RunSettings struct {
	Image  string            `json:"image" yaml:"image"`
	Name   string            `json:"name,omitempty" yaml:"name,omitempty"`
	Ports  []string          `json:"ports,omitempty" yaml:"ports,omitempty"`
	Env    map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Detach bool              `json:"detach" yaml:"detach"`
}
