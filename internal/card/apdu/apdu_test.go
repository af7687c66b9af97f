package apdu

import (
	"testing"

	dErrors "inro/pkg/domain-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jpkiAID = []byte{0xD3, 0x92, 0xF0, 0x00, 0x26, 0x01, 0x00, 0x00, 0x00, 0x01}

func TestSelectByAID_Encoding(t *testing.T) {
	got, err := SelectByAID(jpkiAID).Bytes()
	require.NoError(t, err)

	want := []byte{
		0x00, 0xA4, 0x04, 0x0C,
		0x0A,
		0xD3, 0x92, 0xF0, 0x00, 0x26, 0x01, 0x00, 0x00, 0x00, 0x01,
	}
	assert.Equal(t, want, got, "select must carry no Le byte")
}

func TestSelectByAID_CopiesAID(t *testing.T) {
	aid := append([]byte(nil), jpkiAID...)
	cmd := SelectByAID(aid)
	aid[0] = 0xFF
	assert.Equal(t, byte(0xD3), cmd.Data[0])
}

func TestReadBinary_Encoding(t *testing.T) {
	t.Run("256 bytes encodes Le as 00", func(t *testing.T) {
		got, err := ReadBinary(0, 256).Bytes()
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00, 0xB0, 0x00, 0x00, 0x00}, got)
	})

	t.Run("offset lands in P1 P2", func(t *testing.T) {
		got, err := ReadBinary(0x0123, 8).Bytes()
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00, 0xB0, 0x01, 0x23, 0x08}, got)
	})

	t.Run("offset high bit is masked", func(t *testing.T) {
		cmd := ReadBinary(0xFFFF, 1)
		assert.Equal(t, byte(0x7F), cmd.P1)
	})
}

func TestCommand_Validate(t *testing.T) {
	t.Run("rejects oversized data", func(t *testing.T) {
		_, err := Command{Data: make([]byte, 256)}.Bytes()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects Ne above 256", func(t *testing.T) {
		assert.Error(t, Command{Ne: 257}.Validate())
		assert.Error(t, Command{Ne: -1}.Validate())
	})

	t.Run("case 1 has header only", func(t *testing.T) {
		got, err := Command{CLA: 0x80, INS: 0xCA}.Bytes()
		require.NoError(t, err)
		assert.Equal(t, []byte{0x80, 0xCA, 0x00, 0x00}, got)
	})
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "00B0000000", ReadBinary(0, 256).String())
	assert.Contains(t, Command{Ne: 300}.String(), "invalid apdu")
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
	}{
		{name: "case 1", cmd: Command{CLA: 0x00, INS: 0x84}},
		{name: "case 2", cmd: ReadBinary(0, 256)},
		{name: "case 3", cmd: SelectByAID(jpkiAID)},
		{name: "case 4", cmd: Command{INS: 0xA4, P1: 0x04, Data: []byte{0x01, 0x02}, Ne: 16}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := tt.cmd.MustBytes()
			parsed, err := ParseCommand(raw)
			require.NoError(t, err)
			assert.Equal(t, raw, parsed.MustBytes())
		})
	}

	t.Run("rejects truncated header", func(t *testing.T) {
		_, err := ParseCommand([]byte{0x00, 0xA4})
		assert.Error(t, err)
	})

	t.Run("rejects Lc mismatch", func(t *testing.T) {
		_, err := ParseCommand([]byte{0x00, 0xA4, 0x04, 0x0C, 0x05, 0x01, 0x02})
		assert.Error(t, err)
	})
}

func TestParseResponse(t *testing.T) {
	t.Run("splits data and status word", func(t *testing.T) {
		resp, err := ParseResponse([]byte{'1', '9', '9', '9', '0', '6', '1', '5', 0x90, 0x00})
		require.NoError(t, err)
		assert.Equal(t, []byte("19990615"), resp.Data)
		assert.True(t, resp.OK())
		assert.Equal(t, SWSuccess, resp.StatusWord())
	})

	t.Run("status word only", func(t *testing.T) {
		resp, err := ParseResponse([]byte{0x6A, 0x82})
		require.NoError(t, err)
		assert.Empty(t, resp.Data)
		assert.False(t, resp.OK())
		assert.Equal(t, SWFileNotFound, resp.StatusWord())
	})

	t.Run("rejects fewer than two bytes", func(t *testing.T) {
		_, err := ParseResponse([]byte{0x90})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("round trips", func(t *testing.T) {
		raw := []byte{0x01, 0x02, 0x90, 0x00}
		resp, err := ParseResponse(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, resp.Bytes())
	})
}

func TestStatusWord_String(t *testing.T) {
	assert.Equal(t, "9000 (success)", SWSuccess.String())
	assert.Equal(t, "6A82 (file or application not found)", SWFileNotFound.String())
	assert.Equal(t, "6283", StatusWord(0x6283).String())
	assert.Equal(t, byte(0x6A), SWFileNotFound.SW1())
	assert.Equal(t, byte(0x82), SWFileNotFound.SW2())
}
