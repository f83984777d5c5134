// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package config reads pipeline definitions from YAML or JSON files.
// A file can hold more than one definition as separate YAML documents, and a
// directory is read file by file in lexical order.
package config
