package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-patterns/internal/patterns"
)

type TemplateSummary struct {
	Name    string `json:"name"`
	Default bool   `json:"default"`
	Motif   int    `json:"motif_steps"`
	Bass    int    `json:"bass_steps"`
	Chords  int    `json:"chord_steps"`
}

// ListTemplates returns the available pattern templates
func ListTemplates(c *gin.Context) {
	names := patterns.Templates()
	out := make([]TemplateSummary, 0, len(names))
	for _, name := range names {
		tmpl, err := patterns.TemplateByName(name)
		if err != nil {
			continue
		}
		out = append(out, TemplateSummary{
			Name:    name,
			Default: name == patterns.DefaultTemplate,
			Motif:   len(tmpl.Motif),
			Bass:    len(tmpl.Bass),
			Chords:  len(tmpl.Chords),
		})
	}
	c.JSON(http.StatusOK, gin.H{"templates": out})
}
