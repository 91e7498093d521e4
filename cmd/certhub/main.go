package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	Token     string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func (c *client) download(path, out string) error {
	status, body, err := c.do("GET", path, nil)
	if err != nil {
		return err
	}
	if status/100 != 2 {
		return fmt.Errorf("download falló: status=%d body=%s", status, string(body))
	}
	if err := os.WriteFile(out, body, 0o644); err != nil {
		return err
	}
	fmt.Printf("guardado %s (%d bytes)\n", out, len(body))
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	var (
		baseURL = envOr("CERTHUB_URL", "http://localhost:8080")
		token   = envOr("CERTHUB_TOKEN", "")
		out     = envOr("CERTHUB_OUT", "text")
	)

	root := &cobra.Command{
		Use:   "certhub",
		Short: "CLI de organizador para CertHub",
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del API (env CERTHUB_URL)")
	root.PersistentFlags().StringVar(&token, "token", token, "Bearer token (env CERTHUB_TOKEN)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	cl := &client{HTTP: &http.Client{Timeout: 5 * time.Minute}}
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cl.BaseURL = baseURL
		cl.Token = token
		cl.OutFormat = out
	}

	// generate
	var genEvent string
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generar los certificados de un evento",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("POST", "/v1/events/"+genEvent+"/certificates/generate", nil)
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status/100 != 2 {
				return fmt.Errorf("generate falló: status=%d", status)
			}
			return nil
		},
	}
	generateCmd.Flags().StringVar(&genEvent, "event", "", "ID del evento")
	_ = generateCmd.MarkFlagRequired("event")

	// status
	var statEvent string
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Ver el estado de generación/envío por participante",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/v1/events/"+statEvent+"/certificates/status", nil)
			if err != nil {
				return err
			}
			cl.print(status, body)
			return nil
		},
	}
	statusCmd.Flags().StringVar(&statEvent, "event", "", "ID del evento")
	_ = statusCmd.MarkFlagRequired("event")

	// send-all
	var sendAllEvent string
	sendAllCmd := &cobra.Command{
		Use:   "send-all",
		Short: "Encolar el envío de todos los certificados generados",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("POST", "/v1/events/"+sendAllEvent+"/certificates/send-all", nil)
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status/100 != 2 {
				return fmt.Errorf("send-all falló: status=%d", status)
			}
			return nil
		},
	}
	sendAllCmd.Flags().StringVar(&sendAllEvent, "event", "", "ID del evento")
	_ = sendAllCmd.MarkFlagRequired("event")

	// send
	var sendCert string
	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Encolar el envío de un certificado puntual",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("POST", "/v1/certificates/"+sendCert+"/send", nil)
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status/100 != 2 {
				return fmt.Errorf("send falló: status=%d", status)
			}
			return nil
		},
	}
	sendCmd.Flags().StringVar(&sendCert, "certificate", "", "ID del certificado")
	_ = sendCmd.MarkFlagRequired("certificate")

	// updates
	var updEvent, updSubject, updContent string
	updatesCmd := &cobra.Command{
		Use:   "updates",
		Short: "Mandar un mail de novedades a todo el roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, _ := json.Marshal(map[string]string{
				"subject": updSubject,
				"content": updContent,
			})
			status, body, err := cl.do("POST", "/v1/events/"+updEvent+"/updates", payload)
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status/100 != 2 {
				return fmt.Errorf("updates falló: status=%d", status)
			}
			return nil
		},
	}
	updatesCmd.Flags().StringVar(&updEvent, "event", "", "ID del evento")
	updatesCmd.Flags().StringVar(&updSubject, "subject", "", "Asunto del mail")
	updatesCmd.Flags().StringVar(&updContent, "content", "", "Cuerpo HTML del mail")
	_ = updatesCmd.MarkFlagRequired("event")
	_ = updatesCmd.MarkFlagRequired("subject")

	// download
	var dlCert, dlOut string
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Descargar el PDF de un certificado",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dlOut == "" {
				dlOut = dlCert + ".pdf"
			}
			return cl.download("/v1/certificates/"+dlCert+"/download", dlOut)
		},
	}
	downloadCmd.Flags().StringVar(&dlCert, "certificate", "", "ID del certificado")
	downloadCmd.Flags().StringVarP(&dlOut, "output", "o", "", "Archivo de salida")
	_ = downloadCmd.MarkFlagRequired("certificate")

	// download-all
	var dlaEvent, dlaOut string
	downloadAllCmd := &cobra.Command{
		Use:   "download-all",
		Short: "Descargar el zip con todos los certificados del evento",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dlaOut == "" {
				dlaOut = "certificates-" + dlaEvent + ".zip"
			}
			return cl.download("/v1/events/"+dlaEvent+"/certificates/download", dlaOut)
		},
	}
	downloadAllCmd.Flags().StringVar(&dlaEvent, "event", "", "ID del evento")
	downloadAllCmd.Flags().StringVarP(&dlaOut, "output", "o", "", "Archivo de salida")
	_ = downloadAllCmd.MarkFlagRequired("event")

	// verify
	verifyCmd := &cobra.Command{
		Use:   "verify <token>",
		Short: "Verificar un token público",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/verify/"+args[0], nil)
			if err != nil {
				return err
			}
			cl.print(status, body)
			return nil
		},
	}

	// audit
	var auditEvent string
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Ver el audit log de un evento",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/v1/events/"+auditEvent+"/audit", nil)
			if err != nil {
				return err
			}
			cl.print(status, body)
			return nil
		},
	}
	auditCmd.Flags().StringVar(&auditEvent, "event", "", "ID del evento")
	_ = auditCmd.MarkFlagRequired("event")

	root.AddCommand(generateCmd, statusCmd, sendAllCmd, sendCmd, updatesCmd,
		downloadCmd, downloadAllCmd, verifyCmd, auditCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
