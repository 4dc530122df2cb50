package tagvalue

import "bytes"

// rawToken is one TAG=VALUE token's tag/value plus its byte span in the
// original buffer (span excludes the separator on either side). The span is
// what lets checksum/body-length verification work directly off the raw
// bytes instead of re-joining strings.
type rawToken struct {
	tag        uint32
	value      string
	start, end int // raw[start:end] is "TAG=VALUE"
}

// tokenize splits raw on sep into TAG=VALUE tokens, rejecting any token that
// lacks '=' or has an empty tag (spec §4.4 decode rule 1). A trailing
// separator (the common case — every token including the last is
// SOH-terminated on the wire) produces no phantom empty final token.
func tokenize(raw []byte, sep byte) ([]rawToken, error) {
	var tokens []rawToken
	start := 0
	for start < len(raw) {
		end := bytes.IndexByte(raw[start:], sep)
		if end < 0 {
			end = len(raw) - start
		}
		end += start

		if end > start {
			tok, err := parseToken(raw, start, end)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		}
		start = end + 1
	}
	return tokens, nil
}

func parseToken(raw []byte, start, end int) (rawToken, error) {
	segment := raw[start:end]
	eq := bytes.IndexByte(segment, '=')
	if eq <= 0 {
		return rawToken{}, &Error{Kind: ErrBadSyntax, Detail: "token missing '=' or empty tag: " + string(segment)}
	}

	tag, err := parseUint(segment[:eq])
	if err != nil {
		return rawToken{}, &Error{Kind: ErrBadSyntax, Detail: "non-numeric tag: " + string(segment[:eq])}
	}

	return rawToken{tag: tag, value: string(segment[eq+1:]), start: start, end: end}, nil
}

func parseUint(b []byte) (uint32, error) {
	var v uint64
	if len(b) == 0 {
		return 0, &Error{Kind: ErrBadSyntax, Detail: "empty tag"}
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, &Error{Kind: ErrBadSyntax, Detail: "non-numeric tag"}
		}
		v = v*10 + uint64(c-'0')
	}
	return uint32(v), nil
}
