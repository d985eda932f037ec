// Command smoke checks a running lookup server end to end.
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/agenthands/kbslice/internal/core/model"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Lookup server base URL")
	cui := flag.String("cui", "", "CUI expected to be known to the server")
	wait := flag.Duration("wait", 2*time.Second, "Delay before the first request")
	flag.Parse()

	time.Sleep(*wait)
	client := &http.Client{Timeout: 10 * time.Second}

	fmt.Println("1. Health...")
	if _, ok := get(client, *baseURL+"/health", http.StatusOK); !ok {
		fmt.Println("FAILED: health")
		os.Exit(1)
	}
	fmt.Println("PASSED: health")

	fmt.Println("2. Stats...")
	if _, ok := get(client, *baseURL+"/stats", http.StatusOK); !ok {
		fmt.Println("FAILED: stats")
		os.Exit(1)
	}
	fmt.Println("PASSED: stats")

	fmt.Println("3. Unknown concept...")
	if _, ok := get(client, *baseURL+"/concepts/NOT-A-CUI", http.StatusNotFound); !ok {
		fmt.Println("FAILED: unknown concept")
		os.Exit(1)
	}
	fmt.Println("PASSED: unknown concept")

	if *cui == "" {
		return
	}
	fmt.Printf("4. Concept %s...\n", *cui)
	body, ok := get(client, *baseURL+"/concepts/"+*cui, http.StatusOK)
	if !ok {
		fmt.Println("FAILED: concept lookup")
		os.Exit(1)
	}
	var concept model.Concept
	if err := json.Unmarshal(body, &concept); err != nil || concept.CUI != *cui {
		fmt.Printf("FAILED: concept body: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("PASSED: %d names, %d types, %d relations, %d silver\n",
		len(concept.Names), len(concept.Types), len(concept.Relations), len(concept.Silver))
}

func get(client *http.Client, url string, want int) ([]byte, bool) {
	resp, err := client.Get(url)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return nil, false
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(body))
		return nil, false
	}
	fmt.Printf("Response: %s\n", string(body))
	return body, true
}
