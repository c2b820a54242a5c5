package decorator

import (
	"encoding/json"
	"testing"

	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

func TestNewThread(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	th := NewThread("1", "1")
	assert.Equal(th.ID, "1")
	assert.Equal(th.PID, "")

	th = NewThread("1", "2")
	assert.Equal(th.PID, "2")
}

func TestCheckThread(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	th := CheckThread(nil, "msg-id")
	assert.Equal(th.ID, "msg-id")

	orig := &Thread{PID: "parent"}
	th = CheckThread(orig, "msg-id")
	assert.Equal(th.ID, "msg-id")
	assert.Equal(th.PID, "parent")
	assert.Equal(orig.ID, "")

	th = CheckThread(&Thread{ID: "thread"}, "msg-id")
	assert.Equal(th.ID, "thread")
}

func TestAttachment(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	a := NewAttachment("", "application/json", []byte(`{"a":1}`))
	assert.NotEmpty(a.ID)
	assert.Equal(string(try.To1(a.Bytes())), `{"a":1}`)

	var inline Attachment
	try.To(json.Unmarshal([]byte(`{"@id":"x","data":{"json":{"b":2}}}`), &inline))
	assert.Equal(string(try.To1(inline.Bytes())), `{"b":2}`)

	_, err := (&Attachment{}).Bytes()
	assert.Error(err)
	_, err = FirstBytes(nil)
	assert.Error(err)
}

func TestThreadJSON(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	b := try.To1(json.Marshal(NewThread("t", "p")))
	assert.Equal(string(b), `{"thid":"t","pthid":"p"}`)
}
