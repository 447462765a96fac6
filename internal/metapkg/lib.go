package metapkg

import (
	"fmt"
	"strings"
)

// Lib maps a dds library name to the CMake target providing it.
type Lib struct {
	DDSName   string
	CMakeName string
}

// BadCMakeLibSpecifier reports an unusable CMake library specifier.
type BadCMakeLibSpecifier struct {
	CMakeLib string
	Message  string
}

func (e *BadCMakeLibSpecifier) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.CMakeLib)
}

// ParseLib parses a CMake library specifier for a dds package. A
// `pkg::lib' form must name the owning package; a bare name is shorthand
// for a library of the same package.
func ParseLib(ddsPkgName, cmakeName string) (Lib, error) {
	libSpec := cmakeName
	if strings.Contains(cmakeName, "::") {
		parts := strings.Split(cmakeName, "::")
		if len(parts) != 2 {
			return Lib{}, &BadCMakeLibSpecifier{
				CMakeLib: cmakeName,
				Message:  "only one `::' allowed in CMake library specifier",
			}
		}
		if strings.ToLower(parts[0]) != ddsPkgName {
			return Lib{}, &BadCMakeLibSpecifier{
				CMakeLib: cmakeName,
				Message:  "`<package>' must match the corresponding DDS package in `<package>::<library>'",
			}
		}
		libSpec = parts[1]
	}

	libSpec = strings.ToLower(libSpec)
	return Lib{
		DDSName:   ddsPkgName + "/" + libSpec,
		CMakeName: cmakeName,
	}, nil
}
