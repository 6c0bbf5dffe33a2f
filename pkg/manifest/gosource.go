package manifest

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
)

// versionIdent is the declaration a Go version file must carry, as in
//
//	var Version = "26.2.0"
const versionIdent = "Version"

// goFormat patches the Version constant or variable of a Go source file.
type goFormat struct{}

func (goFormat) Kind() Kind { return KindGo }

func (goFormat) Read(path string, data []byte) (Fields, error) {
	var fields Fields
	lit, _, err := findVersionLit(path, data)
	if err != nil {
		return fields, unparsable(path, "%v", err)
	}
	version, err := strconv.Unquote(lit.Value)
	if err != nil {
		return fields, unparsable(path, "%s is not a plain string: %v", versionIdent, err)
	}
	fields.Version = version
	fields.HasVersion = true

	if modDir, err := locateGoModDir(filepath.Dir(path)); err == nil {
		if modPath, err := readModulePath(filepath.Join(modDir, "go.mod")); err == nil {
			fields.Name = modPath
		}
	}
	return fields, nil
}

func (goFormat) SetVersion(data []byte, version string) ([]byte, error) {
	lit, start, err := findVersionLit("", data)
	if err != nil {
		return nil, err
	}
	end := start + len(lit.Value)

	quoted := strconv.Quote(version)
	if lit.Value[0] == '`' {
		quoted = "`" + version + "`"
	}
	return splice(data, start, end, []byte(quoted)), nil
}

// findVersionLit returns the string literal assigned to the package-level Version
// and its byte offset in data.
func findVersionLit(path string, data []byte) (*ast.BasicLit, int, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, data, parser.SkipObjectResolution)
	if err != nil {
		return nil, 0, err
	}
	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || (gen.Tok != token.CONST && gen.Tok != token.VAR) {
			continue
		}
		for _, spec := range gen.Specs {
			vs := spec.(*ast.ValueSpec)
			for i, name := range vs.Names {
				if name.Name != versionIdent || i >= len(vs.Values) {
					continue
				}
				lit, ok := vs.Values[i].(*ast.BasicLit)
				if !ok || lit.Kind != token.STRING {
					return nil, 0, fmt.Errorf("%s is not assigned a string literal", versionIdent)
				}
				return lit, fset.Position(lit.Pos()).Offset, nil
			}
		}
	}
	return nil, 0, fmt.Errorf("no package-level %s declaration", versionIdent)
}

// locateGoModDir walks up from startDir until it finds go.mod.
// Returns the directory containing go.mod, or os.ErrNotExist if none is found.
func locateGoModDir(startDir string) (string, error) {
	d, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(d, "go.mod")); err == nil {
			return d, nil
		}
		parent := filepath.Dir(d)
		if parent == d {
			return "", os.ErrNotExist
		}
		d = parent
	}
}

func readModulePath(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	f, err := modfile.ParseLax(path, data, nil)
	if err != nil {
		return "", err
	}
	if f.Module == nil {
		return "", errors.New("module directive not found")
	}
	return f.Module.Mod.Path, nil
}

// CheckModuleMajor reports whether modPath can carry version under Go's import
// compatibility rule: v2 and above need a matching /vN suffix on the module path.
func CheckModuleMajor(modPath, version string) error {
	v := "v" + version
	if !semver.IsValid(v) {
		return fmt.Errorf("%s is not a valid semantic version for a Go module", version)
	}
	if err := module.Check(modPath, v); err != nil {
		base, _, _ := module.SplitPathVersion(modPath)
		if major := semver.Major(v); major != "v0" && major != "v1" {
			return fmt.Errorf("module %s cannot publish %s: the module path must end in /%s (%s/%s)",
				modPath, v, major, base, major)
		}
		return err
	}
	return nil
}
