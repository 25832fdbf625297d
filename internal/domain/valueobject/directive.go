package valueobject

// Directive is a module-wide behavior tag declared by a directive prologue string.
type Directive string

const (
	DirectiveServer Directive = "server"
	DirectiveClient Directive = "client"
)

//nolint:gochecknoglobals // Immutable lookup table.
var prologueDirectives = map[string]Directive{
	"use server": DirectiveServer,
	"use client": DirectiveClient,
}

// DirectiveFromPrologue maps the cooked value of a bare string statement to its directive.
func DirectiveFromPrologue(value string) (Directive, bool) {
	d, ok := prologueDirectives[value]
	return d, ok
}

// String implements fmt.Stringer.
func (d Directive) String() string {
	return string(d)
}
