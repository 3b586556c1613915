package cert

import (
	"crypto/x509/pkix"
	"encoding/asn1"
)

// emailAddressOID is pkcs-9 emailAddress (1.2.840.113549.1.9.1), which
// the pkix.Name struct does not surface as a named field.
var emailAddressOID = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 1}

// Name is a distinguished-name record. Absent attributes are empty
// strings.
type Name struct {
	CommonName             string
	EmailAddress           string
	OrganizationName       string
	OrganizationalUnitName string
	LocalityName           string
	StateOrProvinceName    string
	CountryName            string
}

func nameFromPKIX(n pkix.Name) *Name {
	out := &Name{
		CommonName:             clampAttr(n.CommonName),
		OrganizationName:       clampAttr(first(n.Organization)),
		OrganizationalUnitName: clampAttr(first(n.OrganizationalUnit)),
		LocalityName:           clampAttr(first(n.Locality)),
		StateOrProvinceName:    clampAttr(first(n.Province)),
		CountryName:            clampAttr(first(n.Country)),
	}
	for _, atv := range n.Names {
		if !atv.Type.Equal(emailAddressOID) {
			continue
		}
		if s, ok := atv.Value.(string); ok {
			out.EmailAddress = clampAttr(s)
		}
		break
	}
	return out
}

func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

func clampAttr(s string) string {
	if len(s) > maxAttrLen {
		return s[:maxAttrLen]
	}
	return s
}
