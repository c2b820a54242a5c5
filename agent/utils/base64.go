package utils

import "encoding/base64"

// DecodeB64 decodes base64url with or without padding, and falls back to the
// standard alphabet which some agents still send.
func DecodeB64(str string) ([]byte, error) {
	data, err := base64.URLEncoding.DecodeString(str)
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(str)
	}
	if err != nil {
		data, err = base64.StdEncoding.DecodeString(str)
	}
	return data, err
}

func EncodeB64(data []byte) string {
	return base64.URLEncoding.EncodeToString(data)
}
