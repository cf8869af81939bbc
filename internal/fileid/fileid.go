// Package fileid defines the identity types shared across the resolution
// core: the tagged file key and the tagged module name. Both compare by
// value so they can be used directly as map keys.
package fileid

// Kind discriminates the FileKey tag.
type Kind int

const (
	Builtins Kind = iota
	SourceFile
	LibFile
	JsonFile
	ResourceFile
)

func (k Kind) String() string {
	switch k {
	case Builtins:
		return "builtins"
	case SourceFile:
		return "source"
	case LibFile:
		return "lib"
	case JsonFile:
		return "json"
	case ResourceFile:
		return "resource"
	default:
		return "unknown"
	}
}

// FileKey identifies a file (or the synthetic builtins pseudo-file) by tag
// and path. Equality is structural, so FileKey is safe to use as a map key.
type FileKey struct {
	Kind Kind
	Path string
}

func Source(path string) FileKey   { return FileKey{Kind: SourceFile, Path: path} }
func Lib(path string) FileKey      { return FileKey{Kind: LibFile, Path: path} }
func Json(path string) FileKey     { return FileKey{Kind: JsonFile, Path: path} }
func Resource(path string) FileKey { return FileKey{Kind: ResourceFile, Path: path} }

var BuiltinsKey = FileKey{Kind: Builtins}

// String is the stable logging form, e.g. "source:/r/a.js".
func (f FileKey) String() string {
	if f.Kind == Builtins {
		return "builtins"
	}
	return f.Kind.String() + ":" + f.Path
}

// ModuleNameKind discriminates the ModuleName tag.
type ModuleNameKind int

const (
	ByString ModuleNameKind = iota
	ByFile
)

// ModuleName is either a flat-namespace name or the eponymous name of a
// file. Equality is structural.
type ModuleName struct {
	Kind ModuleNameKind
	Str  string
	File FileKey
}

func NameByString(s string) ModuleName { return ModuleName{Kind: ByString, Str: s} }
func NameByFile(f FileKey) ModuleName  { return ModuleName{Kind: ByFile, File: f} }

// String is the stable logging/sort form.
func (m ModuleName) String() string {
	if m.Kind == ByString {
		return "string:" + m.Str
	}
	return "file:" + m.File.String()
}
