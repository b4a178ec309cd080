package framing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndOfMessage(t *testing.T) {
	for _, tc := range []struct {
		input   string
		chunked bool
		want    string
		rest    string
		ok      bool
	}{
		{input: "]]>]]>", want: "]]>]]>", ok: true},
		{input: "<rpc-reply/>]]>]]>", want: "<rpc-reply/>]]>]]>", ok: true},
		{input: "<rpc-reply/>]]>]]>\n<hel", want: "<rpc-reply/>]]>]]>", rest: "\n<hel", ok: true},
		{input: "<rpc-reply/>]]>]]", rest: "<rpc-reply/>]]>]]"},
		{input: "<rpc-reply/>]]>]]>", chunked: true, rest: "<rpc-reply/>]]>]]>"},
		{input: "\n#12\n<rpc-reply/>\n##\n", chunked: true, want: "\n#12\n<rpc-reply/>\n##", rest: "\n", ok: true},
		{input: "#12\n<rpc-reply/>\n##", chunked: true, want: "#12\n<rpc-reply/>\n##", ok: true},
		{input: "#12\n<rpc-reply/>\r\n##\r\n", chunked: true, want: "#12\n<rpc-reply/>\r\n##\r", rest: "\n", ok: true},
		{input: "#12\n<rpc-reply/>\n#", chunked: true, rest: "#12\n<rpc-reply/>\n#"},
		{input: "#12\n<rpc-reply/>\n###", chunked: true, rest: "#12\n<rpc-reply/>\n###"},
		{},
	} {
		t.Run(fmt.Sprintf("%q/%v", tc.input, tc.chunked), func(t *testing.T) {
			a := assert.New(t)
			msg, rest, ok := Split([]byte(tc.input), tc.chunked)
			a.Equal(tc.ok, ok)
			a.Equal(tc.want, string(msg))
			a.Equal(tc.rest, string(rest))
		})
	}
}

func TestErrBadChunk(t *testing.T) {
	a := assert.New(t)
	a.Equal("netconf bad chunk", ErrBadChunk{}.Error())
	a.Equal("netconf bad chunk: invalid chunk size", ErrBadChunk{Message: "invalid chunk size"}.Error())
	a.Equal("netconf bad chunk: invalid chunk size at input offset 4", ErrBadChunk{Message: "invalid chunk size", Offset: 4}.Error())
}
