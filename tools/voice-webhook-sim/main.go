// Command voice-webhook-sim posts a fake voice-assistant booking to the
// gateway, for local testing without the real assistant integration.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	var (
		baseURL    = flag.String("base-url", getenv("BASE_URL", "http://localhost:8080"), "gateway base url")
		clientName = flag.String("client-name", getenv("CLIENT_NAME", "Cliente de Prueba"), "client_name field")
		email      = flag.String("email", getenv("CLIENT_EMAIL", ""), "email field")
		phone      = flag.String("phone", getenv("CLIENT_PHONE", ""), "phone field")
		needType   = flag.String("need-type", getenv("NEED_TYPE", ""), "need_type field")
		dateTime   = flag.String("date-time", getenv("DATE_TIME", ""), "date_time field, free text")
	)
	flag.Parse()

	if strings.TrimSpace(*dateTime) == "" {
		// Default to tomorrow's first morning slot in the shape the real
		// assistant tends to transcribe.
		tomorrow := time.Now().AddDate(0, 0, 1)
		*dateTime = fmt.Sprintf("el %s a las 09:00", tomorrow.Format("2006-01-02"))
	}

	payload, err := json.Marshal(map[string]string{
		"client_name": *clientName,
		"email":       *email,
		"phone":       *phone,
		"need_type":   *needType,
		"date_time":   *dateTime,
	})
	if err != nil {
		fatal(err.Error())
	}

	url := strings.TrimRight(*baseURL, "/") + "/api/v1/public/voice/appointments"
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		fatal(err.Error())
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("%s\n%s\n", resp.Status, body)
	if resp.StatusCode >= 300 {
		os.Exit(1)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "error:", msg)
	os.Exit(1)
}
