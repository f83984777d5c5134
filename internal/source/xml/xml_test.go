// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package xml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/record"
	"github.com/mia-platform/etl/internal/source"
)

func writeFile(t *testing.T, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "input.xml")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestExtract(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		content  []byte
		config   Config
		expected record.Sequence
	}{
		"records at any depth": {
			content: []byte(`<?xml version="1.0" encoding="UTF-8"?>
<data>
  <record><qty>2</qty><price>3.0</price></record>
  <group>
    <record><qty>0</qty><price>5.0</price></record>
  </group>
</data>`),
			expected: record.Sequence{
				record.FromPairs("qty", "2", "price", "3.0"),
				record.FromPairs("qty", "0", "price", "5.0"),
			},
		},
		"custom element, attributes and empty fields": {
			content: []byte(`<informationTable>
  <infoTable id="1">
    <nameOfIssuer>APPLE INC</nameOfIssuer>
    <putCall/>
    <shrsOrPrnAmt>
      <sshPrnamt>100</sshPrnamt>
    </shrsOrPrnAmt>
  </infoTable>
</informationTable>`),
			config: Config{RecordElement: "infoTable", IncludeAttributes: true},
			expected: record.Sequence{
				record.FromPairs("id", "1", "nameOfIssuer", "APPLE INC", "putCall", nil, "shrsOrPrnAmt", ""),
			},
		},
		"namespaces are ignored": {
			content: []byte(`<ns:root xmlns:ns="urn:x"><ns:record><ns:a>1</ns:a></ns:record></ns:root>`),
			expected: record.Sequence{
				record.FromPairs("a", "1"),
			},
		},
		"latin1 charset": {
			content: append(
				[]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><root><record><name>Soci`),
				append([]byte{0xe9}, []byte(`t</name></record></root>`)...)...,
			),
			expected: record.Sequence{
				record.FromPairs("name", "Soci\u00e9t"),
			},
		},
		"no records": {
			content:  []byte(`<root/>`),
			expected: record.Sequence{},
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			config := test.config
			config.Path = writeFile(t, test.content)
			extractor, err := NewExtractor(config)
			require.NoError(t, err)

			records, err := extractor.Extract(t.Context())
			require.NoError(t, err)
			assert.True(t, test.expected.Equal(records), "got %v", records.Maps())
		})
	}
}

func TestExtractErrors(t *testing.T) {
	t.Parallel()

	_, err := NewExtractor(Config{})
	require.ErrorIs(t, err, etlerr.ErrInvalidConfiguration)

	missing, err := NewExtractor(Config{Location: source.Location{Path: filepath.Join(t.TempDir(), "missing.xml")}})
	require.NoError(t, err)
	_, err = missing.Extract(t.Context())
	assert.ErrorIs(t, err, etlerr.ErrSourceUnavailable)

	broken, err := NewExtractor(Config{Location: source.Location{Path: writeFile(t, []byte(`<root><record><a>1</a>`))}})
	require.NoError(t, err)
	records, err := broken.Extract(t.Context())
	assert.Nil(t, records)
	assert.ErrorIs(t, err, etlerr.ErrFormat)
}
