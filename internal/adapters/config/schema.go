package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Planfile represents the structure of the rig.yaml plan file.
type Planfile struct {
	Version   string            `yaml:"version"`
	Target    TargetDTO         `yaml:"target"`
	Env       map[string]string `yaml:"env"`
	Resources ResourcesDTO      `yaml:"resources"`
	Execd     ExecdDTO          `yaml:"execd"`
	Tasks     TaskList          `yaml:"tasks"`
}

// TargetDTO describes the provisioned host.
type TargetDTO struct {
	Kind           string `yaml:"kind"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	IdentityFile   string `yaml:"identityFile"`
	KnownHostsFile string `yaml:"knownHostsFile"`
	DialTimeout    string `yaml:"dialTimeout"`
}

// ResourcesDTO is the resource request for the run.
type ResourcesDTO struct {
	VCPUs     int    `yaml:"vcpus"`
	MemoryMiB int64  `yaml:"memoryMiB"`
	Cgroup    string `yaml:"cgroup"`
}

// ExecdDTO configures the streaming exec service.
type ExecdDTO struct {
	Enabled       bool     `yaml:"enabled"`
	Port          int      `yaml:"port"`
	RemoteDir     string   `yaml:"remoteDir"`
	ReadyAttempts int      `yaml:"readyAttempts"`
	ReadyDelay    string   `yaml:"readyDelay"`
	IdleTimeout   string   `yaml:"idleTimeout"`
	DependsOn     []string `yaml:"dependsOn"`
}

// TaskDTO represents a task definition in the plan.
type TaskDTO struct {
	Description string   `yaml:"description"`
	Run         string   `yaml:"run"`
	Argv        []string `yaml:"argv"`
	DependsOn   []string `yaml:"dependsOn"`
	Timeout     string   `yaml:"timeout"`
}

// TaskEntry is a named task in document order.
type TaskEntry struct {
	Name string
	Task TaskDTO
}

// TaskList keeps tasks in the order they appear in the file, duplicates included.
type TaskList []TaskEntry

// UnmarshalYAML decodes a mapping of task name to TaskDTO.
func (l *TaskList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: tasks must be a mapping of name to task", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var dto TaskDTO
		if err := node.Content[i+1].Decode(&dto); err != nil {
			return err
		}
		*l = append(*l, TaskEntry{Name: node.Content[i].Value, Task: dto})
	}
	return nil
}
