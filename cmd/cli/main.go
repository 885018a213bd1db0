package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
)

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Incident title: ")
	title, _ := reader.ReadString('\n')
	title = strings.TrimSpace(title)
	if title == "" {
		fmt.Println("Title is required.")
		return
	}

	fmt.Print("Severity (critical/high/medium/low, default medium): ")
	sev, _ := reader.ReadString('\n')
	sev = strings.TrimSpace(sev)

	payload := map[string]any{"title": title}
	if sev != "" {
		payload["sev"] = sev
	}

	body, _ := json.Marshal(payload)
	resp, err := http.Post(api+"/incidents", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Println("Error contacting API:", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var inc struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&inc)
		fmt.Printf("Created incident %s (%s). Watch it on GET /incidents.\n", inc.ID, inc.Status)
	} else {
		fmt.Println("API returned status:", resp.Status)
	}
}
