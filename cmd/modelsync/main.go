// Command modelsync writes the gateway's model list into a host
// application's settings file, merging with whatever is already there.
package main

import (
	"flag"
	"os"

	"github.com/rotorgate/rotorgate/internal/registry"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

func main() {
	var settingsPath string
	var baseURL string
	flag.StringVar(&settingsPath, "settings", "settings.json", "path to the host settings file")
	flag.StringVar(&baseURL, "base-url", "http://127.0.0.1:8787/v1", "gateway base URL to write")
	flag.Parse()

	doc := "{}"
	if data, err := os.ReadFile(settingsPath); err == nil && gjson.ValidBytes(data) {
		doc = string(data)
	}

	doc, _ = sjson.Set(doc, "customApi.baseUrl", baseURL)
	models := "[]"
	for _, entry := range registry.Default().List() {
		item := "{}"
		item, _ = sjson.Set(item, "id", entry.ID)
		item, _ = sjson.Set(item, "displayName", entry.DisplayName)
		item, _ = sjson.Set(item, "contextWindow", entry.ContextLimit)
		item, _ = sjson.Set(item, "maxOutputTokens", entry.OutputLimit)
		models, _ = sjson.SetRaw(models, "-1", item)
	}
	doc, _ = sjson.SetRaw(doc, "customApi.models", models)

	if err := os.WriteFile(settingsPath, []byte(doc), 0o644); err != nil {
		log.Fatalf("write settings: %v", err)
	}
	log.Infof("wrote %d model(s) to %s", len(registry.Default().List()), settingsPath)
}
