package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// Domain prefixes for content digests.
// Version suffix enables future algorithm migration.
const (
	DomainRecord    = "clavcheck/record/v1"
	DomainRecordSet = "clavcheck/recordset/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RecordDigest returns the content digest of a record.
// Derived bookkeeping (CriterionSeq) is excluded.
func RecordDigest(r *Record) (string, error) {
	canonical, err := MarshalCanonical(r)
	if err != nil {
		return "", fmt.Errorf("RecordDigest %s: %w", r.Code, err)
	}
	return hashWithDomain(DomainRecord, canonical), nil
}

// SetDigest returns the digest of a record set, independent of sheet and
// record declaration order.
func SetDigest(s RecordSet) (string, error) {
	var recs []*Record
	for _, sh := range s.Sheets {
		recs = append(recs, sh.Records...)
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Code < recs[j].Code })

	terms := cloneSlice(s.IndexTerms)
	sort.SliceStable(terms, func(i, j int) bool {
		if terms[i].Code != terms[j].Code {
			return terms[i].Code < terms[j].Code
		}
		return terms[i].Term < terms[j].Term
	})

	canonical, err := MarshalCanonical(struct {
		Records    []*Record   `json:"records"`
		IndexTerms []IndexTerm `json:"index_terms"`
		Catalogs   Catalogs    `json:"catalogs"`
	}{recs, terms, s.Catalogs})
	if err != nil {
		return "", fmt.Errorf("SetDigest: %w", err)
	}
	return hashWithDomain(DomainRecordSet, canonical), nil
}

// MustRecordDigest is like RecordDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRecordDigest(r *Record) string {
	d, err := RecordDigest(r)
	if err != nil {
		panic(err)
	}
	return d
}
