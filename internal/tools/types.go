package tools

// Tool identifiers and metadata
type ToolKey string

const (
	KeyMSYS2   ToolKey = "msys2"
	KeyCMake   ToolKey = "cmake"
	KeyMake    ToolKey = "make"
	KeyOpenOCD ToolKey = "openocd"
	KeyArmGCC  ToolKey = "arm_gcc"
)

// Manager names the package manager that owns a tool.
type Manager string

const (
	ManagerNone   Manager = ""
	ManagerWinget Manager = "winget"
	ManagerPacman Manager = "pacman"
)

type ToolSpec struct {
	Key          ToolKey
	DisplayName  string
	CheckCommand string // empty: detected by install directory
	Package      string // package id for Manager
	Manager      Manager
	Aliases      []string

	// BaseRuntime marks the POSIX layer every other tool is installed into.
	BaseRuntime bool
	// PreferRuntime checks inside the runtime before the host PATH.
	PreferRuntime bool
}

// NotFound is the Info of a tool that could not be detected.
const NotFound = "not found"

// Detection sources.
const (
	SourceHost      = "host"
	SourceRuntime   = "msys2"
	SourceDirectory = "directory"
)

type ToolStatus struct {
	Installed bool
	Info      string // first line of the check output, or NotFound
	Source    string
}

// Check pairs a tool with its detected status.
type Check struct {
	Spec   ToolSpec
	Status ToolStatus
}
