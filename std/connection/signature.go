package connection

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"time"

	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/sec"
	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

const connectionSigExpTime = 10 * 60 * 60

var (
	ErrNoSignature      = errors.New("connection signature missing")
	ErrSignature        = errors.New("connection signature does not verify")
	ErrSignatureExpired = errors.New("connection signature timestamp invalid")
	ErrSigner           = errors.New("connection signed by unexpected key")
)

var now = func() int64 {
	return time.Now().Unix()
}

// Sign signs r.Connection with the pipe's in key and sets the
// connection~sig.
func Sign(ctx context.Context, r *Response, pipe sec.Pipe) (err error) {
	defer err2.Handle(&err, "build connection sign")

	connectionJSON := try.To1(json.Marshal(r.Connection))
	signedData, signature := try.To2(pipe.SignAndStamp(ctx, connectionJSON))

	r.ConnectionSignature = &ConnectionSignature{
		Type:       pltype.SignatureEd25519Sha512,
		SignedData: utils.EncodeB64(signedData),
		SignVerKey: pipe.In.String(),
		Signature:  utils.EncodeB64(signature),
	}
	return nil
}

// Verify verifies the connection~sig and fills r.Connection from the signed
// data. When expected keys are given, the signer must be one of them.
func Verify(r *Response, expected ...wallet.Key) (err error) {
	defer err2.Handle(&err, "verify connection sign")

	cs := r.ConnectionSignature
	if cs == nil || cs.SignedData == "" || cs.Signature == "" {
		return ErrNoSignature
	}
	signer := wallet.Key(cs.SignVerKey)
	if len(expected) > 0 && !contains(expected, signer) {
		glog.Warningln("connection signer", signer, "not in", expected)
		return ErrSigner
	}

	data := try.To1(utils.DecodeB64(cs.SignedData))
	if len(data) <= 8 {
		return ErrNoSignature
	}
	signature := try.To1(utils.DecodeB64(cs.Signature))
	pipe := sec.Pipe{Out: []wallet.Key{signer}}
	if !pipe.Verify(data, signature) {
		return ErrSignature
	}

	timestamp := int64(binary.BigEndian.Uint64(data))
	diff := now() - timestamp
	if diff < 0 || diff > connectionSigExpTime {
		// some agents write the stamp in little endian
		timestamp = int64(binary.LittleEndian.Uint64(data))
		diff = now() - timestamp
	}
	if diff < 0 || diff > connectionSigExpTime {
		glog.Errorln("connection signature timestamp is invalid:", time.Unix(timestamp, 0))
		return ErrSignatureExpired
	}
	glog.V(3).Info("verified connection signature w/ ts:", time.Unix(timestamp, 0))

	var c Connection
	try.To(json.Unmarshal(data[8:], &c))
	r.Connection = &c
	return nil
}

func contains(keys []wallet.Key, k wallet.Key) bool {
	for _, key := range keys {
		if key == k {
			return true
		}
	}
	return false
}
