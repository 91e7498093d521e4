package dispatch

import (
	"bytes"
	"fmt"
	htemplate "html/template"
	ttemplate "text/template"
	"time"
)

// Cuerpos branded de los mails. El banner (si hay) va inline por cid.

const certificateHTMLTmpl = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#f4f4f7;font-family:Arial,Helvetica,sans-serif;">
  <div style="max-width:600px;margin:0 auto;background:#ffffff;">
    {{if .BannerCID}}<img src="cid:{{.BannerCID}}" alt="" style="width:100%;display:block;"/>{{end}}
    <div style="padding:32px;color:#1a1a2e;">
      <h2 style="margin-top:0;">¡Felicitaciones, {{.ParticipantName}}!</h2>
      <p>Adjuntamos tu certificado de participación en <strong>{{.EventName}}</strong>{{if .EventDate}} ({{.EventDate}}){{end}}.</p>
      <p>Podés validar su autenticidad en cualquier momento escaneando el código QR impreso en el certificado.</p>
      {{if .InstituteName}}<p style="color:#555;">{{.InstituteName}}</p>{{end}}
      {{if .Signature}}<p style="color:#555;">{{.Signature}}</p>{{end}}
    </div>
  </div>
</body>
</html>`

const certificateTextTmpl = `¡Felicitaciones, {{.ParticipantName}}!

Adjuntamos tu certificado de participación en {{.EventName}}{{if .EventDate}} ({{.EventDate}}){{end}}.
Podés validar su autenticidad escaneando el código QR impreso en el certificado.
{{if .Signature}}
{{.Signature}}{{end}}`

const updateHTMLTmpl = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#f4f4f7;font-family:Arial,Helvetica,sans-serif;">
  <div style="max-width:600px;margin:0 auto;background:#ffffff;">
    {{if .BannerCID}}<img src="cid:{{.BannerCID}}" alt="" style="width:100%;display:block;"/>{{end}}
    <div style="padding:32px;color:#1a1a2e;">
      <h2 style="margin-top:0;">Hola, {{.ParticipantName}}</h2>
      <div>{{.Content}}</div>
      {{if .Signature}}<p style="color:#555;">{{.Signature}}</p>{{end}}
    </div>
  </div>
</body>
</html>`

var (
	certificateHTML = htemplate.Must(htemplate.New("certificate_html").Parse(certificateHTMLTmpl))
	certificateText = ttemplate.Must(ttemplate.New("certificate_text").Parse(certificateTextTmpl))
	updateHTML      = htemplate.Must(htemplate.New("update_html").Parse(updateHTMLTmpl))
)

type certificateMailData struct {
	ParticipantName string
	EventName       string
	EventDate       string
	InstituteName   string
	Signature       string
	BannerCID       string
}

type updateMailData struct {
	ParticipantName string
	Content         htemplate.HTML
	Signature       string
	BannerCID       string
}

func renderCertificateBodies(participantName string, eventName string, date time.Time,
	institute, signature, bannerCID string) (html, text string, err error) {

	data := certificateMailData{
		ParticipantName: participantName,
		EventName:       eventName,
		InstituteName:   institute,
		Signature:       signature,
		BannerCID:       bannerCID,
	}
	if !date.IsZero() {
		data.EventDate = date.Format("02/01/2006")
	}

	var hbuf, tbuf bytes.Buffer
	if err := certificateHTML.Execute(&hbuf, data); err != nil {
		return "", "", fmt.Errorf("dispatch: render html body: %w", err)
	}
	if err := certificateText.Execute(&tbuf, data); err != nil {
		return "", "", fmt.Errorf("dispatch: render text body: %w", err)
	}
	return hbuf.String(), tbuf.String(), nil
}

func renderUpdateBody(participantName, content, signature, bannerCID string) (string, error) {
	data := updateMailData{
		ParticipantName: participantName,
		Content:         htemplate.HTML(content),
		Signature:       signature,
		BannerCID:       bannerCID,
	}
	var buf bytes.Buffer
	if err := updateHTML.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("dispatch: render update body: %w", err)
	}
	return buf.String(), nil
}
