package session_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"inro/internal/card/reader"
	readermocks "inro/internal/card/reader/mocks"
	"inro/internal/card/session"
	"inro/internal/card/session/mocks"
	"inro/pkg/requestcontext"
	"inro/pkg/testutil"
)

var (
	selectAPDU = []byte{0x00, 0xA4, 0x04, 0x0C, 0x0A, 0xD3, 0x92, 0xF0, 0x00, 0x26, 0x01, 0x00, 0x00, 0x00, 0x01}
	readAPDU   = []byte{0x00, 0xB0, 0x00, 0x00, 0x00}
)

type SessionSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	detector *mocks.MockDetector
	tag      *mocks.MockTag
	tx       *readermocks.MockTransmitter
	factory  *session.Factory
	ctx      context.Context
}

func (s *SessionSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.detector = mocks.NewMockDetector(s.ctrl)
	s.tag = mocks.NewMockTag(s.ctrl)
	s.tx = readermocks.NewMockTransmitter(s.ctrl)
	s.factory = session.NewFactory(session.NewCapability(true))
	s.ctx = context.Background()
}

func (s *SessionSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

// blockUntilDone makes Detect hang until the session context ends.
func (s *SessionSuite) blockUntilDone() {
	s.detector.EXPECT().Detect(gomock.Any()).DoAndReturn(func(ctx context.Context) ([]session.Tag, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}).AnyTimes()
}

func (s *SessionSuite) expectCard(payload []byte) {
	s.detector.EXPECT().Detect(gomock.Any()).Return([]session.Tag{s.tag}, nil)
	s.tag.EXPECT().Type().Return(session.TagISO7816)
	s.tag.EXPECT().Connect(gomock.Any()).Return(s.tx, nil)
	gomock.InOrder(
		s.tx.EXPECT().Transmit(gomock.Any(), selectAPDU).Return([]byte{0x90, 0x00}, nil),
		s.tx.EXPECT().Transmit(gomock.Any(), readAPDU).Return(payload, nil),
	)
}

func (s *SessionSuite) begin() *session.Session {
	sess, err := s.factory.Begin(s.ctx, s.detector)
	s.Require().NoError(err)
	return sess
}

func (s *SessionSuite) TestSuccessfulRead() {
	s.expectCard(append([]byte("19990615"), 0x90, 0x00))

	sess := s.begin()
	date, err := sess.Wait(s.ctx)

	s.Require().NoError(err)
	s.Equal("1999-06-15", date.String())

	_, open := <-sess.Done()
	s.False(open, "done must be closed after the single outcome")
}

func (s *SessionSuite) TestDoneDeliversExactlyOnce() {
	s.expectCard(append([]byte("19990615"), 0x90, 0x00))

	sess := s.begin()
	var outcomes []session.Outcome
	for o := range sess.Done() {
		outcomes = append(outcomes, o)
	}
	sess.Invalidate(session.ReasonOther)

	s.Require().Len(outcomes, 1)
	s.NoError(outcomes[0].Err)
}

func (s *SessionSuite) TestDetectionFailures() {
	s.Run("no tags is tag_not_found", func() {
		s.detector.EXPECT().Detect(gomock.Any()).Return(nil, nil)

		_, err := s.begin().Wait(s.ctx)
		s.ErrorIs(err, reader.ErrTagNotFound)
	})

	s.Run("non-ISO tag is unsupported_card without connecting", func() {
		s.detector.EXPECT().Detect(gomock.Any()).Return([]session.Tag{s.tag}, nil)
		s.tag.EXPECT().Type().Return(session.TagFeliCa).Times(2)

		_, err := s.begin().Wait(s.ctx)
		s.ErrorIs(err, reader.ErrUnsupportedCard)
	})

	s.Run("connect failure is communication_error", func() {
		s.detector.EXPECT().Detect(gomock.Any()).Return([]session.Tag{s.tag}, nil)
		s.tag.EXPECT().Type().Return(session.TagISO7816)
		s.tag.EXPECT().Connect(gomock.Any()).Return(nil, errors.New("tag moved"))

		_, err := s.begin().Wait(s.ctx)
		s.ErrorIs(err, reader.ErrCommunication)
	})

	s.Run("detector error is communication_error", func() {
		s.detector.EXPECT().Detect(gomock.Any()).Return(nil, errors.New("radio off"))

		_, err := s.begin().Wait(s.ctx)
		s.ErrorIs(err, reader.ErrCommunication)
	})
}

func (s *SessionSuite) TestReadFailuresKeepReaderKind() {
	s.Run("bad status word", func() {
		s.expectCard([]byte{0x6A, 0x82})

		_, err := s.begin().Wait(s.ctx)
		s.ErrorIs(err, reader.ErrCommunication)
	})

	s.Run("unparseable payload", func() {
		s.expectCard(append([]byte("ABCDEFGH"), 0x90, 0x00))

		_, err := s.begin().Wait(s.ctx)
		s.ErrorIs(err, reader.ErrParsing)
	})
}

func (s *SessionSuite) TestUnsupportedPlatform() {
	f := session.NewFactory(session.NewCapability(false))
	s.False(f.Available())

	sess, err := f.Begin(s.ctx, s.detector)
	s.Require().NoError(err)

	_, err = sess.Wait(s.ctx)
	s.ErrorIs(err, reader.ErrNotSupported)
}

func (s *SessionSuite) TestInvalidate() {
	s.Run("user cancel ends silently", func() {
		s.blockUntilDone()
		sess := s.begin()

		sess.Invalidate(session.ReasonUserCanceled)

		_, err := sess.Wait(s.ctx)
		s.ErrorIs(err, session.ErrCanceled)
	})

	s.Run("first read complete ends silently", func() {
		s.blockUntilDone()
		sess := s.begin()

		sess.Invalidate(session.ReasonFirstReadComplete)

		_, open := <-sess.Done()
		s.False(open)
	})

	s.Run("system busy reports session_invalidated", func() {
		s.blockUntilDone()
		sess := s.begin()

		sess.Invalidate(session.ReasonSystemBusy)

		_, err := sess.Wait(s.ctx)
		s.ErrorIs(err, reader.ErrSessionInvalidated)
		s.Contains(err.Error(), "system_busy")
	})
}

func (s *SessionSuite) TestContextEnds() {
	s.Run("parent cancel is a silent user cancel", func() {
		s.blockUntilDone()
		ctx, cancel := context.WithCancel(s.ctx)
		sess, err := s.factory.Begin(ctx, s.detector)
		s.Require().NoError(err)

		cancel()

		_, err = sess.Wait(s.ctx)
		s.ErrorIs(err, session.ErrCanceled)
	})

	s.Run("factory timeout reports session_invalidated", func() {
		s.blockUntilDone()
		f := session.NewFactory(session.NewCapability(true), session.WithTimeout(10*time.Millisecond))
		sess, err := f.Begin(s.ctx, s.detector)
		s.Require().NoError(err)

		_, err = sess.Wait(s.ctx)
		s.ErrorIs(err, reader.ErrSessionInvalidated)
		s.Contains(err.Error(), "timeout")
	})

	s.Run("waiter giving up invalidates the session", func() {
		s.blockUntilDone()
		sess := s.begin()
		ctx, cancel := context.WithTimeout(s.ctx, 5*time.Millisecond)
		defer cancel()

		_, err := sess.Wait(ctx)
		s.ErrorIs(err, context.DeadlineExceeded)

		_, open := <-sess.Done()
		s.False(open)
	})
}

func (s *SessionSuite) TestOneLiveSessionPerFactory() {
	s.blockUntilDone()
	s.False(s.factory.Busy())
	first := s.begin()
	s.True(s.factory.Busy())

	_, err := s.factory.Begin(s.ctx, s.detector)
	s.ErrorIs(err, reader.ErrSessionInvalidated)
	s.ErrorIs(err, session.ErrBusy)

	first.Invalidate(session.ReasonUserCanceled)
	s.False(s.factory.Busy(), "invalidation frees the factory before returning")

	second, err := s.factory.Begin(s.ctx, s.detector)
	s.Require().NoError(err)
	second.Invalidate(session.ReasonUserCanceled)
}

func (s *SessionSuite) TestForkHasItsOwnGate() {
	s.blockUntilDone()
	held := s.begin()
	defer held.Invalidate(session.ReasonUserCanceled)

	fork := s.factory.Fork()
	s.False(fork.Busy())
	sess, err := fork.Begin(s.ctx, s.detector)
	s.Require().NoError(err)
	s.True(fork.Busy())
	s.Equal(s.factory.AlertMessage(), sess.AlertMessage())

	sess.Invalidate(session.ReasonUserCanceled)
	s.True(s.factory.Busy(), "ending a forked session leaves the parent gate alone")

	s.Run("fork keeps the session timeout", func() {
		f := session.NewFactory(session.NewCapability(true), session.WithTimeout(10*time.Millisecond))
		sess, err := f.Fork().Begin(s.ctx, s.detector)
		s.Require().NoError(err)

		_, err = sess.Wait(s.ctx)
		s.ErrorIs(err, reader.ErrSessionInvalidated)
		s.Contains(err.Error(), "timeout")
	})
}

func (s *SessionSuite) TestConcurrentBeginAdmitsOne() {
	s.blockUntilDone()
	var mu sync.Mutex
	var live []*session.Session

	res := testutil.RunConcurrent(8, func(int) error {
		sess, err := s.factory.Begin(s.ctx, s.detector)
		if err != nil {
			return reader.DomainError(err)
		}
		mu.Lock()
		live = append(live, sess)
		mu.Unlock()
		return nil
	})

	s.Equal(int32(1), res.Successes)
	s.Equal(int32(7), res.Conflicts)
	for _, sess := range live {
		sess.Invalidate(session.ReasonUserCanceled)
	}
}

func (s *SessionSuite) TestAlertMessage() {
	s.blockUntilDone()
	sess := s.begin()
	defer sess.Invalidate(session.ReasonUserCanceled)
	s.Equal(session.DefaultAlertMessage, sess.AlertMessage())

	f := session.NewFactory(session.Unsupported{}, session.WithAlertMessage("カードをかざしてください"))
	s.Equal("カードをかざしてください", f.AlertMessage())
	other, err := f.Begin(s.ctx, nil)
	s.Require().NoError(err)
	s.Equal("カードをかざしてください", other.AlertMessage())
}

func (s *SessionSuite) TestEndLogCarriesRequestID() {
	s.blockUntilDone()
	var buf lockedBuffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f := session.NewFactory(session.NewCapability(true), session.WithLogger(log))
	ctx, cancel := context.WithCancel(requestcontext.WithRequestID(s.ctx, "req-42"))
	defer cancel()

	sess, err := f.Begin(ctx, s.detector)
	s.Require().NoError(err)
	sess.Invalidate(session.ReasonOther)

	var ended string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, `"msg":"card session ended"`) {
			ended = line
		}
	}
	s.Require().NotEmpty(ended)
	s.Contains(ended, `"request_id":"req-42"`)
	s.Contains(ended, `"reason":"other"`)
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestNewCapability(t *testing.T) {
	assert.True(t, session.NewCapability(true).Available())
	assert.False(t, session.NewCapability(false).Available())
	assert.IsType(t, session.Unsupported{}, session.NewCapability(false))
}

func TestNewFactory_PanicsWithoutCapability(t *testing.T) {
	assert.Panics(t, func() { session.NewFactory(nil) })
}
