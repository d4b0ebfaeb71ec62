package domain

import "time"

const (
	// DefaultPlanFile is the plan file looked up when none is given.
	DefaultPlanFile = "rig.yaml"

	// ShellBinary runs raw shell lines and wrapper scripts.
	ShellBinary = "sh"

	// CgroupRoot is the cgroup v2 mount point.
	CgroupRoot = "/sys/fs/cgroup"
	// CgroupControllersFile marks a cgroup v2 hierarchy when present under CgroupRoot.
	CgroupControllersFile = "cgroup.controllers"
	// CgroupSubtreeControlFile enables controllers for child groups.
	CgroupSubtreeControlFile = "cgroup.subtree_control"
	// CgroupProcsFile lists the processes that belong to a group.
	CgroupProcsFile = "cgroup.procs"
	// CgroupV1CPUMount is where the legacy cpu controller is usually mounted.
	CgroupV1CPUMount = "/sys/fs/cgroup/cpu"

	// ExecdTaskName is the task that deploys the streaming exec service.
	ExecdTaskName = "execd"
	// ExecdBinaryPrefix prefixes the uploaded exec service binary name.
	ExecdBinaryPrefix = "rig-execd-"
	// ExecdTimeoutExitCode is reported when the exec service kills a command on timeout.
	ExecdTimeoutExitCode = 124

	// DefaultSSHPort is used when an ssh target has no port.
	DefaultSSHPort = 22
	// DefaultDialTimeout bounds connecting to the target.
	DefaultDialTimeout = 10 * time.Second
	// DefaultExecdPort is the port the exec service listens on.
	DefaultExecdPort = 7777
	// DefaultExecdRemoteDir is where the exec service binary is uploaded.
	DefaultExecdRemoteDir = "/tmp"
	// DefaultExecdReadyAttempts bounds the exec service health polling.
	DefaultExecdReadyAttempts = 30
	// DefaultExecdReadyDelay separates health polls.
	DefaultExecdReadyDelay = time.Second
	// DefaultExecdIdleTimeout stops an unused exec service.
	DefaultExecdIdleTimeout = 30 * time.Minute

	// DirPerm is the default permission for directories created by rig.
	DirPerm = 0o750
	// PrivateFilePerm is the permission for files written by rig.
	PrivateFilePerm = 0o600
	// ExecPerm is the permission given to uploaded binaries.
	ExecPerm = 0o755
)
