package render

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/valyala/bytebufferpool"
)

//go:embed templates/mail/*.html templates/mail/*.txt
var embedFS embed.FS
var embedTemplate *template.Template
var templateDir string
var globalVars map[string]interface{}

var templateExts = []string{".html", ".txt"}

func Initialize(gVars map[string]interface{}, tmplDir string) error {
	globalVars = gVars
	if tmplDir != "" {
		info, err := os.Stat(tmplDir)
		if err != nil {
			return fmt.Errorf("template directory does not exist: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("template path is not a directory: %s", tmplDir)
		}
		templateDir = tmplDir
	}

	if err := initEmbeddedTemplates(); err != nil {
		return err
	}
	return nil
}

func isTemplateFile(name string) bool {
	for _, ext := range templateExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// initEmbeddedTemplates parses the embedded templates under names relative to
// the templates directory, e.g. "mail/recover-password.html".
func initEmbeddedTemplates() error {
	t := template.New("")
	err := fs.WalkDir(embedFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isTemplateFile(d.Name()) {
			return nil
		}
		rel := strings.TrimPrefix(path, "templates/")
		content, readErr := embedFS.ReadFile(path)
		if readErr != nil {
			return readErr
		}
		if _, parseErr := t.New(rel).Parse(string(content)); parseErr != nil {
			return parseErr
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to parse embedded templates: %w", err)
	}
	embedTemplate = t
	return nil
}

func render(templateName string, vars map[string]interface{}) (string, error) {
	if embedTemplate == nil {
		if err := initEmbeddedTemplates(); err != nil {
			return "", err
		}
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	mergedVars := make(map[string]interface{})
	for k, v := range globalVars {
		mergedVars[k] = v
	}
	for k, v := range vars {
		mergedVars[k] = v
	}

	// a template in templateDir overrides the embedded one of the same name
	if templateDir != "" {
		filePath := filepath.Join(templateDir, filepath.FromSlash(templateName))
		if contents, err := os.ReadFile(filePath); err == nil {
			if t, err := template.New(templateName).Parse(string(contents)); err == nil {
				if err := t.ExecuteTemplate(buf, templateName, mergedVars); err == nil {
					return buf.String(), nil
				}
			}
			buf.Reset()
			slog.Warn("Render template failed, falling back to embedded", "path", filePath)
		}
	}

	if err := embedTemplate.ExecuteTemplate(buf, templateName, mergedVars); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func withExt(templateName string, ext string) string {
	if path.Ext(templateName) != ext {
		templateName += ext
	}
	return templateName
}

func RenderHTML(templateName string, vars map[string]interface{}) (string, error) {
	return render(withExt(templateName, ".html"), vars)
}

func RenderText(templateName string, vars map[string]interface{}) (string, error) {
	return render(withExt(templateName, ".txt"), vars)
}
