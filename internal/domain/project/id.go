package project

import (
	"path/filepath"

	"github.com/google/uuid"
)

// idNamespace scopes folder-derived IDs so they cannot collide with IDs
// minted from other name spaces. Generated once; never change it, or every
// device re-derives new identities for existing projects.
var idNamespace = uuid.MustParse("9f2f7a3e-5b1d-4c8a-9d64-1f0b8c2a7e55")

// DeriveID computes the stable identifier for a project folder. The same
// path always yields the same ID on every device, with no coordination:
// a SHA-1 name-based UUID over the cleaned path.
func DeriveID(path string) string {
	return uuid.NewSHA1(idNamespace, []byte(filepath.Clean(path))).String()
}
