package installer

// Stage is a state of the install pipeline. Stages run in declaration order.
type Stage int

const (
	StageDetect Stage = iota
	StageBaseRuntime
	StageInitRuntime
	StageBuildTools
	StageOpenOCD
	StageArmGCC
	StageConfigureEnv
	StageVerify
	StageReport
)

var stageNames = [...]string{
	StageDetect:       "detect",
	StageBaseRuntime:  "install base runtime",
	StageInitRuntime:  "initialise runtime",
	StageBuildTools:   "install build tools",
	StageOpenOCD:      "install openocd",
	StageArmGCC:       "install arm gcc",
	StageConfigureEnv: "configure PATH",
	StageVerify:       "verify",
	StageReport:       "report",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "unknown"
}
