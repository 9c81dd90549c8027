package diag

import (
	"fmt"
)

type Code uint16

const (
	// Unknown code, used as a fallback only.
	UnknownCode Code = 0

	// Module and library I/O
	IOInfo                    Code = 4000
	IOMissingTargetLibrary    Code = 4001
	IOMissingSecondaryLibrary Code = 4002
	IOMissingInputModule      Code = 4003
	IOWriteModule             Code = 4004

	// Reference resolution
	ResInfo              Code = 5000
	ResUnresolvedType    Code = 5001
	ResUnresolvedMethod  Code = 5002
	ResUnresolvedField   Code = 5003

	// Literal path repair
	PathInfo      Code = 6000
	PathAmbiguous Code = 6001
	PathBroken    Code = 6002
	PathFixed     Code = 6003
	PathWrapped   Code = 6004

	// Assembly references
	AsmInfo     Code = 7000
	AsmReplaced Code = 7001
	AsmRemoved  Code = 7002

	// Observability
	ObsInfo    Code = 8000
	ObsTimings Code = 8001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:               "Unknown error",
		IOInfo:                    "I/O information",
		IOMissingTargetLibrary:    "Replacement library cannot be loaded",
		IOMissingSecondaryLibrary: "Secondary replacement library not found",
		IOMissingInputModule:      "Input module cannot be read",
		IOWriteModule:             "Module cannot be written",
		ResInfo:                   "Resolution information",
		ResUnresolvedType:         "Type not found in replacement library",
		ResUnresolvedMethod:       "Method not found in replacement library",
		ResUnresolvedField:        "Field not found in replacement library",
		PathInfo:                  "Path repair information",
		PathAmbiguous:             "Path cannot be repaired",
		PathBroken:                "Broken path",
		PathFixed:                 "Path repaired",
		PathWrapped:               "Path separator fixed at load time",
		AsmInfo:                   "Assembly reference information",
		AsmReplaced:               "Assembly reference replaced",
		AsmRemoved:                "Assembly reference removed",
		ObsInfo:                   "Observability information",
		ObsTimings:                "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("PTH%04d", ic)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("ASM%04d", ic)
	case ic >= 8000 && ic < 9000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
