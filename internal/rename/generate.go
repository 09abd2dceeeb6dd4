package rename

import (
	"strings"

	"github.com/backmassage/renamebot/internal/naming"
)

// FileDescriptor is the read-only view of an uploaded file.
type FileDescriptor struct {
	Name     string // original filename; may be empty
	Size     int64  // bytes
	UniqueID string // transfer-layer id, used as a name stem when Name is empty
	Source   string // opaque handle the Transfer downloads from
}

// FallbackName returns the original name, or "file_<UniqueID>" when the
// upload carried none.
func (f FileDescriptor) FallbackName() string {
	if f.Name != "" {
		return f.Name
	}
	return "file_" + f.UniqueID
}

// Extension returns the text after the last dot of the original name, or ""
// when the name has no dot.
func (f FileDescriptor) Extension() string {
	i := strings.LastIndex(f.Name, ".")
	if i < 0 {
		return ""
	}
	return f.Name[i+1:]
}

// Settings is the subset of user preferences that drives name generation.
type Settings struct {
	Mode     Mode
	Template string
	Rules    naming.ReplacementRules
}

// GenerateName derives the new filename for file. It never fails and never
// returns an empty string. Collision handling is not applied here.
func GenerateName(file FileDescriptor, caption string, s Settings) string {
	var name string
	switch s.Mode {
	case ModeManual:
		name = manualName(file, caption)
	case ModeReplace:
		name = s.Rules.Apply(file.FallbackName())
	default:
		name = autoName(file, s.Template)
	}
	// Rules run again for every mode, including replace, and their output
	// is user text: sanitize it so it can never leave the destination
	// directory or come out empty.
	fallback := naming.Sanitize(file.FallbackName(), naming.ProfileFilename, "")
	return naming.Sanitize(s.Rules.Apply(name), naming.ProfileFilename, fallback)
}

func autoName(file FileDescriptor, tmpl string) string {
	if tmpl == "" {
		return file.FallbackName()
	}
	vars := naming.ExtractVariables(file.Name)
	return withExtension(naming.ApplyTemplate(tmpl, vars), file.Extension())
}

func manualName(file FileDescriptor, caption string) string {
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return file.FallbackName()
	}
	name := naming.Sanitize(caption, naming.ProfileManual, file.FallbackName())
	return withExtension(name, file.Extension())
}

// withExtension appends "."+ext unless name already ends with it.
func withExtension(name, ext string) string {
	if ext == "" || strings.HasSuffix(name, "."+ext) {
		return name
	}
	return name + "." + ext
}
