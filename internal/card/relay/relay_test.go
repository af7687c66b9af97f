package relay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inro/internal/card/reader"
	"inro/internal/card/session"
	dErrors "inro/pkg/domain-errors"
	inrotest "inro/pkg/testutil"
)

const (
	selectHex = "00A4040C0AD392F000260100000001"
	readHex   = "00B0000000"
)

func TestTranscript_DrivesReader(t *testing.T) {
	tr := New(ForReadResponse(inrotest.CardResponse("19990615")))

	got, err := reader.New(tr).ReadBirthDate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "1999-06-15", got.String())
	assert.Equal(t, 0, tr.Remaining())
}

func TestTranscript_Transmit(t *testing.T) {
	ctx := context.Background()

	t.Run("mismatched command is a communication error", func(t *testing.T) {
		tr := New(ForReadResponse(inrotest.CardResponse("19990615")))

		_, err := tr.Transmit(ctx, []byte{0x00, 0xA4, 0x04, 0x00})
		require.Error(t, err)
		assert.ErrorIs(t, err, reader.ErrCommunication)
		assert.Equal(t, 2, tr.Remaining(), "a rejected command must not advance the transcript")
	})

	t.Run("exhausted transcript is a communication error", func(t *testing.T) {
		tr := New(nil)

		_, err := tr.Transmit(ctx, []byte{0x00, 0xB0, 0x00, 0x00, 0x00})
		assert.ErrorIs(t, err, reader.ErrCommunication)
	})

	t.Run("canceled context is a communication error", func(t *testing.T) {
		tr := New(ForReadResponse(nil))
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := tr.Transmit(cctx, nil)
		assert.ErrorIs(t, err, reader.ErrCommunication)
	})

	t.Run("returned responses are copies", func(t *testing.T) {
		exchanges := ForReadResponse(inrotest.CardResponse("19990615"))
		tr := New(exchanges)

		resp, err := tr.Transmit(ctx, exchanges[0].Command)
		require.NoError(t, err)
		resp[0] = 0x00
		assert.Equal(t, byte(0x90), exchanges[0].Response[0])
	})
}

func TestTranscript_ReaderRejectsBadStatus(t *testing.T) {
	tr := New(ForReadResponse(inrotest.CardResponseWithStatus("19990615", 0x6282)))

	_, err := reader.New(tr).ReadBirthDate(context.Background())
	assert.ErrorIs(t, err, reader.ErrCommunication)
}

func TestDecodeHex(t *testing.T) {
	t.Run("accepts spaced and packed hex", func(t *testing.T) {
		ex, err := DecodeHex("00 A4 04 0C 0A D3 92 F0 00 26 01 00 00 00 01", "9000")
		require.NoError(t, err)

		packed, err := DecodeHex(selectHex, "90 00")
		require.NoError(t, err)
		assert.Equal(t, packed, ex)
		assert.Equal(t, ForReadResponse(nil)[0].Command, ex.Command)
	})

	tests := []struct {
		name     string
		command  string
		response string
	}{
		{name: "odd length command", command: "00B00", response: "9000"},
		{name: "non-hex response", command: readHex, response: "zz00"},
		{name: "command shorter than header", command: "00B0", response: "9000"},
		{name: "response without status word", command: readHex, response: "90"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeHex(tt.command, tt.response)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestTranscript_RejectsLongAIDSelect(t *testing.T) {
	// One extra AID byte still parses as a short APDU; the trailing byte reads as Le.
	long, err := DecodeHex("00A4040C0AD392F00026010000000001", "9000")
	require.NoError(t, err)
	read, err := DecodeHex(readHex, "3139393930363135 9000")
	require.NoError(t, err)

	tr := New([]Exchange{long, read})
	_, err = reader.New(tr).ReadBirthDate(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, reader.ErrCommunication)
	assert.Equal(t, 2, tr.Remaining())
}

func TestDetector(t *testing.T) {
	ctx := context.Background()
	tr := New(ForReadResponse(inrotest.CardResponse("19990615")))

	t.Run("iso tag connects to the transcript", func(t *testing.T) {
		tags, err := tr.Detector(session.TagISO7816).Detect(ctx)
		require.NoError(t, err)
		require.Len(t, tags, 1)
		assert.Equal(t, session.TagISO7816, tags[0].Type())

		tx, err := tags[0].Connect(ctx)
		require.NoError(t, err)
		assert.Same(t, tr, tx)
	})

	t.Run("empty tag type means no tag", func(t *testing.T) {
		tags, err := tr.Detector("").Detect(ctx)
		require.NoError(t, err)
		assert.Empty(t, tags)
	})

	t.Run("session over a felica tag is unsupported", func(t *testing.T) {
		f := session.NewFactory(session.NewCapability(true))
		sess, err := f.Begin(ctx, tr.Detector(session.TagFeliCa))
		require.NoError(t, err)

		_, err = sess.Wait(ctx)
		assert.ErrorIs(t, err, reader.ErrUnsupportedCard)
	})

	t.Run("session over an iso tag reads the date", func(t *testing.T) {
		f := session.NewFactory(session.NewCapability(true))
		sess, err := f.Begin(ctx, New(ForReadResponse(inrotest.CardResponse("20050401"))).Detector(session.TagISO7816))
		require.NoError(t, err)

		got, err := sess.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, "2005-04-01", got.String())
	})
}
