package d1

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/zeebo/xxh3"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/sqlgen"
)

// Statement separator and terminator for the concatenated payload.
const (
	stmtSeparator  = ";\n"
	stmtTerminator = ";"
)

// JoinStatements concatenates a batch into the single payload blob the
// staging storage expects: statements joined by ";\n" with a trailing ";".
func JoinStatements(stmts []sqlgen.Statement) []byte {
	if len(stmts) == 0 {
		return nil
	}
	n := len(stmtTerminator) + len(stmtSeparator)*(len(stmts)-1)
	for _, s := range stmts {
		n += len(s)
	}
	out := make([]byte, 0, n)
	for i, s := range stmts {
		if i > 0 {
			out = append(out, stmtSeparator...)
		}
		out = append(out, s...)
	}
	return append(out, stmtTerminator...)
}

// Checksum returns the payload's integrity token as handed to the control
// plane. The staging storage echoes an MD5 content tag, so MD5 (hex, lower
// case) is required here for the comparison to be meaningful.
func Checksum(payload []byte) string {
	sum := md5.Sum(payload)
	return hex.EncodeToString(sum[:])
}

// Fingerprint returns a fast xxh3 fingerprint of the payload, used for log
// correlation across the phases of an import job.
func Fingerprint(payload []byte) uint64 {
	return xxh3.Hash(payload)
}
