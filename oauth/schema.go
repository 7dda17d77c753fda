// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed data/discovery-document.schema.json
var embeddedSchemaFS embed.FS

// validateDiscoveryDocumentBytes validates raw discovery document JSON
// against the embedded metadata schema. It catches shape errors (for
// example an endpoint that is not a string) before field extraction;
// required-field checks happen in DiscoveryDocument.Validate.
func validateDiscoveryDocumentBytes(data []byte) error {
	schemaData, err := embeddedSchemaFS.ReadFile("data/discovery-document.schema.json")
	if err != nil {
		return fmt.Errorf("failed to read embedded discovery schema: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaData),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("discovery document is not valid JSON: %w", err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("discovery document schema validation failed: %s", strings.Join(msgs, "; "))
}
