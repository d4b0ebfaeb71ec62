package domain

import "time"

// TargetKind selects how rig reaches the provisioned host.
type TargetKind string

const (
	// TargetLocal runs commands on the machine running rig.
	TargetLocal TargetKind = "local"
	// TargetSSH runs commands over an SSH connection.
	TargetSSH TargetKind = "ssh"
)

// Plan is a fully parsed provisioning plan.
type Plan struct {
	Target    TargetSpec
	Env       map[string]string
	Resources ResourceSpec
	Execd     ExecdSpec
	Tasks     []TaskSpec
}

// TaskSpec describes one provisioning task as declared in the plan.
type TaskSpec struct {
	Name        string
	Description string
	Command     Command
	DependsOn   []string
	Timeout     time.Duration
}

// TargetSpec describes how to reach the provisioned host.
type TargetSpec struct {
	Kind           TargetKind
	Host           string
	Port           int
	User           string
	IdentityFile   string
	KnownHostsFile string
	DialTimeout    time.Duration
}

// ResourceSpec is the coarse resource request for the run.
type ResourceSpec struct {
	VCPUs     int
	MemoryMiB int64
	Cgroup    string
}

// ExecdSpec configures deployment of the streaming exec service.
type ExecdSpec struct {
	Enabled       bool
	Port          int
	RemoteDir     string
	ReadyAttempts int
	ReadyDelay    time.Duration
	IdleTimeout   time.Duration
	DependsOn     []string
}

// HostCapacity is the CPU and memory available on a host.
type HostCapacity struct {
	CPUs      int
	MemoryMiB int64
}
