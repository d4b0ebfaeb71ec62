package logsink_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/rig/internal/adapters/logsink"
	"go.trai.ch/rig/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestWriter_SplitsLines(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	gomock.InOrder(
		log.EXPECT().Info("[task:base] first"),
		log.EXPECT().Info("[task:base] second"),
		log.EXPECT().Info("[task:base] tail"),
	)

	w := logsink.New(log, "task:base", logsink.Stdout)
	_, err := w.Write([]byte("fir"))
	require.NoError(t, err)
	_, err = w.Write([]byte("st\nsecond\r\nta"))
	require.NoError(t, err)
	_, err = w.WriteString("il")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestWriter_StderrWarns(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn("E: unable to locate package")

	w := logsink.New(log, "", logsink.Stderr)
	_, err := w.WriteString("E: unable to locate package\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestReplay(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	gomock.InOrder(
		log.EXPECT().Info("[x] out"),
		log.EXPECT().Warn("[x] err"),
	)

	logsink.Replay(log, "x", "out\n", "err")
}
