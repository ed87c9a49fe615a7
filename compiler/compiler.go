package compiler

import (
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/stoneface86/trackerboy-sub003"
)

//go:embed templates/*
var defaultTemplates embed.FS

// DefaultPrefix is prepended to every exported label.
const DefaultPrefix = "tb"

type Compiler struct {
	Template *template.Template
	Prefix   string
}

var moduleTemplates = []string{"module.asm", "module.h"}

// New returns a new compiler using the default .asm and .h templates.
func New() *Compiler {
	tmpl := template.Must(template.New("base").Funcs(funcMap()).ParseFS(defaultTemplates, "templates/*"))
	return &Compiler{Template: tmpl, Prefix: DefaultPrefix}
}

func NewFromTemplates(templateDirectory string) (*Compiler, error) {
	globPtrn := filepath.Join(templateDirectory, "*.*")
	tmpl, err := template.New("base").Funcs(funcMap()).ParseGlob(globPtrn)
	if err != nil {
		return nil, fmt.Errorf(`could not create template based on directory "%v": %v`, templateDirectory, err)
	}
	return &Compiler{Template: tmpl, Prefix: DefaultPrefix}, nil
}

// Module encodes the songs, instruments and waveforms of m and returns the
// populated templates keyed by file extension.
func (com *Compiler) Module(m *trackerboy.Module) (map[string]string, error) {
	macros, err := NewModuleMacros(com.Prefix, m)
	if err != nil {
		return nil, err
	}
	retmap := map[string]string{}
	for _, templateName := range moduleTemplates {
		if com.Template.Lookup(templateName) == nil {
			continue
		}
		populatedTemplate, extension, err := com.compile(templateName, macros)
		if err != nil {
			return nil, fmt.Errorf(`could not execute template "%v": %v`, templateName, err)
		}
		retmap[extension] = populatedTemplate
	}
	if len(retmap) == 0 {
		return nil, fmt.Errorf("no module templates found, expected one of %v", moduleTemplates)
	}
	return retmap, nil
}

func (com *Compiler) compile(templateName string, data interface{}) (string, string, error) {
	result := bytes.NewBufferString("")
	err := com.Template.ExecuteTemplate(result, templateName, data)
	extension := filepath.Ext(templateName)
	return result.String(), extension, err
}

func funcMap() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["hexbytes"] = hexBytes
	return funcs
}

// hexBytes formats data as a comma separated list of $xx literals, the way
// both rgbds and C (after the header's own macro) accept them.
func hexBytes(prefix string, data []byte) string {
	var b bytes.Buffer
	for i, v := range data {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s%02X", prefix, v)
	}
	return b.String()
}
