package templates

import (
	"bytes"
	"html/template"
	"log"
)

// CriticalAlertProps describes a failed scheduled job.
type CriticalAlertProps struct {
	DisplayName string
	Job         string
	Error       string
	OccurredAt  string
}

var criticalAlertTemplate = template.Must(template.New("criticalAlert").Parse(`
<h1 style="font-size: 20px; color: #b00020; margin: 0 0 16px;">{{.DisplayName}} - errore critico</h1>
<p style="margin: 0 0 12px;">Il processo pianificato <strong>{{.Job}}</strong> non è stato completato.</p>
<p style="margin: 0 0 12px;">Data: {{.OccurredAt}}</p>
<pre style="background: #f4f5f6; padding: 12px; border-radius: 8px; white-space: pre-wrap;">{{.Error}}</pre>`))

// GetCriticalAlertContent renders the body of a critical alert mail.
func GetCriticalAlertContent(props CriticalAlertProps) string {
	var buf bytes.Buffer
	if err := criticalAlertTemplate.Execute(&buf, props); err != nil {
		log.Printf("Error executing critical alert template: %v", err)
		return ""
	}
	return buf.String()
}
