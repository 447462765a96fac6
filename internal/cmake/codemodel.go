package cmake

// Codemodel is the parsed "codemodel-v2" reply: the build tool's
// structured description of a configured project's targets.
type Codemodel struct {
	Configurations []Configuration `json:"configurations"`
	Paths          CodemodelPaths  `json:"paths"`
}

type CodemodelPaths struct {
	Source string `json:"source"`
	Build  string `json:"build"`
}

type Configuration struct {
	Name    string      `json:"name"`
	Targets []TargetRef `json:"targets"`
}

// TargetRef names a target and points at its per-target detail document,
// relative to the reply directory.
type TargetRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	JSONFile string `json:"jsonFile"`
}

// targetDetail is the subset of the per-target reply document the resolver
// consumes.
type targetDetail struct {
	Name          string         `json:"name"`
	Type          string         `json:"type"`
	CompileGroups []compileGroup `json:"compileGroups"`
	Sources       []sourceEntry  `json:"sources"`
	Link          *linkDetail    `json:"link"`
}

// compileGroup is a subset of a target's sources sharing one set of
// defines and include directories. Interface-only targets have none.
type compileGroup struct {
	Language string `json:"language"`
	Defines  []struct {
		Define string `json:"define"`
	} `json:"defines"`
	Includes []struct {
		Path     string `json:"path"`
		IsSystem bool   `json:"isSystem"`
	} `json:"includes"`
}

type sourceEntry struct {
	Path string `json:"path"`
	// Nil for header-only/non-compiled entries.
	CompileGroupIndex *int `json:"compileGroupIndex"`
}

type linkDetail struct {
	CommandFragments []struct {
		Fragment string `json:"fragment"`
		Role     string `json:"role"`
	} `json:"commandFragments"`
}
