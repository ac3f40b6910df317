package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var baseURL = envOr("SLIDEVAULT_URL", "http://localhost:8080")

func main() {
	if len(os.Args) < 2 {
		showHelp()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "list":
		query := ""
		if len(os.Args) > 2 {
			query = os.Args[2]
		}
		listPresentations(query)

	case "show":
		if len(os.Args) < 3 {
			fmt.Println("❌ Usage: slidevault-cli show <id>")
			os.Exit(1)
		}
		showPresentation(os.Args[2])

	case "upload":
		if len(os.Args) < 4 {
			fmt.Println("❌ Usage: slidevault-cli upload <file> <title> [tags]")
			os.Exit(1)
		}
		tags := ""
		if len(os.Args) > 4 {
			tags = os.Args[4]
		}
		uploadPresentation(os.Args[2], os.Args[3], tags)

	case "delete":
		if len(os.Args) < 3 {
			fmt.Println("❌ Usage: slidevault-cli delete <id>")
			os.Exit(1)
		}
		deletePresentation(os.Args[2])

	case "share":
		if len(os.Args) < 3 {
			fmt.Println("❌ Usage: slidevault-cli share <id>")
			os.Exit(1)
		}
		sharePresentation(os.Args[2])

	case "stats":
		showStats()

	case "export":
		path := "presentations-export.json"
		if len(os.Args) > 2 {
			path = os.Args[2]
		}
		exportData(path)

	default:
		showHelp()
	}
}

func listPresentations(query string) {
	url := baseURL + "/api/v1/presentations"
	if query != "" {
		url += "?q=" + query
	}

	var result struct {
		Presentations []struct {
			ID       string `json:"id"`
			Title    string `json:"title"`
			FileType string `json:"fileType"`
			FileSize int64  `json:"fileSize"`
			Views    int64  `json:"views"`
		} `json:"presentations"`
		Count int `json:"count"`
	}
	if err := getJSON(url, &result); err != nil {
		fatal("Failed to list presentations", err)
	}

	fmt.Printf("📋 %d presentation(s)\n\n", result.Count)
	for _, p := range result.Presentations {
		fmt.Printf("  %-45s %-30s %s, %d KB, %d views\n",
			p.ID, truncate(p.Title, 28), p.FileType, p.FileSize/1024, p.Views)
	}
}

func showPresentation(id string) {
	var rec map[string]interface{}
	if err := getJSON(baseURL+"/api/v1/presentations/"+id, &rec); err != nil {
		fatal("Failed to load presentation", err)
	}
	delete(rec, "fileData")

	out, _ := json.MarshalIndent(rec, "", "  ")
	fmt.Println(string(out))
}

func uploadPresentation(path, title, tags string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fatal("Failed to read file", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		fatal("Failed to build request", err)
	}
	if _, err := fw.Write(data); err != nil {
		fatal("Failed to build request", err)
	}
	w.WriteField("title", title)
	w.WriteField("tags", tags)
	w.Close()

	fmt.Printf("🔄 Uploading %s (%d KB)\n", filepath.Base(path), len(data)/1024)

	resp, err := httpClient().Post(baseURL+"/api/v1/presentations", w.FormDataContentType(), &buf)
	if err != nil {
		fatal("Upload failed", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		fmt.Printf("❌ Upload rejected (%d): %s\n", resp.StatusCode, strings.TrimSpace(string(body)))
		os.Exit(1)
	}

	var rec struct {
		ID string `json:"id"`
	}
	json.Unmarshal(body, &rec)
	fmt.Printf("✅ Uploaded: %s\n", rec.ID)
}

func deletePresentation(id string) {
	req, _ := http.NewRequest(http.MethodDelete, baseURL+"/api/v1/presentations/"+id, nil)
	resp, err := httpClient().Do(req)
	if err != nil {
		fatal("Delete failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("❌ Delete failed (%d)\n", resp.StatusCode)
		os.Exit(1)
	}
	fmt.Printf("✅ Deleted: %s\n", id)
}

func sharePresentation(id string) {
	var result struct {
		Link  string `json:"link"`
		QRURL string `json:"qrUrl"`
		Views int64  `json:"views"`
	}
	if err := getJSON(baseURL+"/api/v1/presentations/"+id+"/share", &result); err != nil {
		fatal("Failed to build share link", err)
	}

	fmt.Printf("🔗 Link: %s\n", result.Link)
	fmt.Printf("   QR:   %s\n", result.QRURL)
	fmt.Printf("   Views so far: %d\n", result.Views)
}

func showStats() {
	var result struct {
		Stats struct {
			TotalPresentations int64 `json:"totalPresentations"`
			TotalViews         int64 `json:"totalViews"`
		} `json:"stats"`
		Summary struct {
			UniqueTags   int   `json:"uniqueTags"`
			AverageViews int64 `json:"averageViews"`
		} `json:"summary"`
	}
	if err := getJSON(baseURL+"/api/v1/stats", &result); err != nil {
		fatal("Failed to load stats", err)
	}

	fmt.Printf("📊 Presentations: %d\n", result.Stats.TotalPresentations)
	fmt.Printf("   Total views:   %d\n", result.Stats.TotalViews)
	fmt.Printf("   Unique tags:   %d\n", result.Summary.UniqueTags)
	fmt.Printf("   Average views: %d\n", result.Summary.AverageViews)
}

func exportData(path string) {
	resp, err := httpClient().Get(baseURL + "/api/v1/export")
	if err != nil {
		fatal("Export failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("❌ Export failed (%d)\n", resp.StatusCode)
		os.Exit(1)
	}

	out, err := os.Create(path)
	if err != nil {
		fatal("Failed to create export file", err)
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		fatal("Failed to write export file", err)
	}
	fmt.Printf("✅ Exported %d bytes to %s\n", n, path)
}

func getJSON(url string, out interface{}) error {
	resp, err := httpClient().Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(msg string, err error) {
	fmt.Printf("❌ %s: %v\n", msg, err)
	os.Exit(1)
}

func showHelp() {
	fmt.Println(`SlideVault CLI

Usage: slidevault-cli <command> [args]

Commands:
  list [query]                  List presentations, optionally filtered
  show <id>                     Show a presentation's metadata
  upload <file> <title> [tags]  Upload a PDF, PPT, or PPTX file
  delete <id>                   Delete a presentation
  share <id>                    Print the share link and QR image URL
  stats                         Show catalog statistics
  export [path]                 Download a full JSON export

Environment:
  SLIDEVAULT_URL  Server base URL (default http://localhost:8080)`)
}
