package migrations

import "embed"

// FS bundles the SQL migrations into the binary so deployments never depend
// on files on disk.
//
//go:embed *.sql
var FS embed.FS
