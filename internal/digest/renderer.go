// Package digest renders the per-user email artifact.
package digest

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"creatorpulse/internal/models"
)

// TemplateVersion identifies the digest layout contract. Bump it when the
// rendered structure changes so downstream email clients can be re-verified.
const TemplateVersion = "v1"

// Digest is a rendered email ready for the delivery collaborator.
type Digest struct {
	Subject string
	HTML    string
}

type templateData struct {
	Version        string
	Date           string
	Ideas          []models.Idea
	Insights       []string
	UploadAdvice   models.UploadTimeRecommendation
	UnsubscribeURL string
}

var digestTmpl = template.Must(template.New("digest").Funcs(template.FuncMap{
	"pct": func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
}).Parse(digestHTML))

// Render builds the digest for one user from the filtered idea list and the
// current insight snapshot.
func Render(snap *models.InsightSnapshot, ideas []models.Idea, unsubscribeURL string, now time.Time) (*Digest, error) {
	if len(ideas) == 0 {
		return nil, fmt.Errorf("digest: no ideas to render")
	}

	data := templateData{
		Version:        TemplateVersion,
		Date:           now.Format("Jan 2, 2006"),
		Ideas:          ideas,
		UnsubscribeURL: unsubscribeURL,
	}
	if snap != nil {
		data.Insights = snap.Insights
		data.UploadAdvice = snap.BestUpload
	}

	var buf bytes.Buffer
	if err := digestTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("digest: render failed: %w", err)
	}

	subject := fmt.Sprintf("Your Content Ideas - %d Ideas for This Week (%s)",
		len(ideas), data.Date)

	return &Digest{Subject: subject, HTML: buf.String()}, nil
}
