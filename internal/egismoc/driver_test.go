package egismoc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeTransport is a scripted, in-memory Transport used to exercise the
// operation sequences without a real sensor: Receive replays a fixed
// queue of replies in call order, mirroring how each operation's exchange
// sequence is itself fixed and deterministic.
type fakeTransport struct {
	sent          [][]byte
	replies       [][]byte
	replyIdx      int
	waitFingerErr error
	cancelCalled  bool
}

func (f *fakeTransport) Send(ctx context.Context, cmd Command) error {
	f.sent = append(f.sent, append([]byte(nil), cmd.Bytes()...))
	return nil
}

func (f *fakeTransport) Receive(ctx context.Context) ([]byte, error) {
	if f.replyIdx >= len(f.replies) {
		return nil, newErr(KindGeneral, "fakeTransport: no scripted reply left")
	}
	reply := f.replies[f.replyIdx]
	f.replyIdx++
	return reply, nil
}

func (f *fakeTransport) WaitFinger(ctx context.Context) error { return f.waitFingerErr }
func (f *fakeTransport) CancelFingerWait()                    { f.cancelCalled = true }

func (f *fakeTransport) ControlIn(ctx context.Context, requestType, request uint8, value, index uint16, length int) ([]byte, error) {
	return make([]byte, length), nil
}

// buildMarkerReply builds a minimal reply carrying prefix at the standard
// prefix offset and suffix (if any) at the very end, with extra zero bytes
// in between.
func buildMarkerReply(prefix, suffix []byte, extra int) []byte {
	off := readPrefixLen + checkBytesLength
	total := off + len(prefix) + extra + len(suffix)
	buf := make([]byte, total)
	copy(buf[off:], prefix)
	if len(suffix) > 0 {
		copy(buf[total-len(suffix):], suffix)
	}
	return buf
}

func buildListReply(ids []PrintID) []byte {
	total := 16 + len(ids)*fingerprintIDSize
	buf := make([]byte, total)
	for i, id := range ids {
		copy(buf[14+i*fingerprintIDSize:], id[:])
	}
	return buf
}

func ignoredReply() []byte { return make([]byte, 10) }

func TestRunOpenParsesFirmwareVersion(t *testing.T) {
	// 3 reserved bytes and a carriage return precede the version text.
	fwReply := buildMarkerReply([]byte("\x00\x00\x00\r1.2.3"), rspFwVersionSuffix, 0)
	ft := &fakeTransport{replies: [][]byte{fwReply}}

	version, err := runOpen(context.Background(), ft)
	require.NoError(t, err)
	require.Equal(t, "1.2.3", version)
}

func TestRunListEmpty(t *testing.T) {
	ft := &fakeTransport{replies: [][]byte{make([]byte, 10)}}
	reg, err := runList(context.Background(), ft)
	require.NoError(t, err)
	require.True(t, reg.IsEmpty())
}

func TestRunListPopulated(t *testing.T) {
	ids := []PrintID{NewPrintID([]byte("a")), NewPrintID([]byte("b"))}
	ft := &fakeTransport{replies: [][]byte{buildListReply(ids)}}
	reg, err := runList(context.Background(), ft)
	require.NoError(t, err)
	require.Equal(t, 2, reg.Len())
	require.Equal(t, ids[0], reg.At(0))
}

func TestRunDeleteNotFoundWhenRegistryEmpty(t *testing.T) {
	ft := &fakeTransport{replies: [][]byte{make([]byte, 10)}}
	err := runDelete(context.Background(), ft, Print{})
	require.Error(t, err)
	kind, ok := AsKind(err)
	require.True(t, ok)
	require.Equal(t, KindDataNotFound, kind)
}

func TestRunDeleteRequiresFpiData(t *testing.T) {
	ids := []PrintID{NewPrintID([]byte("a"))}
	ft := &fakeTransport{replies: [][]byte{buildListReply(ids)}}
	err := runDelete(context.Background(), ft, Print{})
	require.Error(t, err)
	kind, ok := AsKind(err)
	require.True(t, ok)
	require.Equal(t, KindDataInvalid, kind)
}

func TestRunDeleteSuccess(t *testing.T) {
	id := NewPrintID([]byte("a"))
	ft := &fakeTransport{replies: [][]byte{
		buildListReply([]PrintID{id}),
		buildMarkerReply(rspDeleteSuccessPrefix, nil, 0),
	}}
	err := runDelete(context.Background(), ft, PrintFromID(id))
	require.NoError(t, err)
}

func TestRunClearStorageNoPrintsIsNotFound(t *testing.T) {
	ft := &fakeTransport{replies: [][]byte{make([]byte, 10)}}
	err := runClearStorage(context.Background(), ft)
	require.Error(t, err)
	kind, ok := AsKind(err)
	require.True(t, ok)
	require.Equal(t, KindDataNotFound, kind)
	require.Len(t, ft.sent, 1, "clear-storage on an empty registry should only issue the list call")
}

func TestRunClearStorageRejectsNonEmptyAfterClear(t *testing.T) {
	ids := []PrintID{NewPrintID([]byte("a"))}
	ft := &fakeTransport{replies: [][]byte{
		buildListReply(ids),
		buildMarkerReply(rspDeleteSuccessPrefix, nil, 0),
		buildListReply(ids), // device still reports the print: protocol error
	}}
	err := runClearStorage(context.Background(), ft)
	require.Error(t, err)
	kind, ok := AsKind(err)
	require.True(t, ok)
	require.Equal(t, KindProtocol, kind)
}

func TestRunEnrollHappyPath(t *testing.T) {
	replies := [][]byte{
		make([]byte, 10),        // runList: empty registry
		ignoredReply(),          // cmdSensorReset
		ignoredReply(),          // cmdSensorEnroll
		ignoredReply(),          // cmdSensorCheck
		buildMarkerReply(rspCheckNotYetEnrolledPrefix, nil, 0), // duplicate check
		ignoredReply(), // cmdEnrollStarting
	}
	for i := 0; i < EnrollTimes; i++ {
		replies = append(replies,
			ignoredReply(), // per-stage cmdSensorReset
			ignoredReply(), // cmdSensorStartCapture
			buildMarkerReply(rspReadSuccessPrefix, rspReadSuccessSuffix, 0), // cmdReadCapture
		)
	}
	replies = append(replies,
		ignoredReply(), // cmdCommitStarting
		ignoredReply(), // new print commit
		ignoredReply(), // final cmdSensorReset
	)
	ft := &fakeTransport{replies: replies}

	var progressCalls, fingerStatusCalls int
	fw := &recordingFramework{
		onEnrollProgress:     func(stage int, p *Print, err error) { progressCalls++ },
		onReportFingerStatus: func(FingerStatus) { fingerStatusCalls++ },
	}

	gen := func(Print) string { return "FPtest" }
	finished, err := runEnroll(context.Background(), ft, Print{}, gen, fw)
	require.NoError(t, err)
	require.NotNil(t, finished)
	require.Equal(t, EnrollTimes, progressCalls)
	require.Equal(t, 2+EnrollTimes*2, fingerStatusCalls)
}

func TestRunEnrollRetriesOffcenterCapture(t *testing.T) {
	replies := [][]byte{
		make([]byte, 10), // runList: empty registry
		ignoredReply(),   // cmdSensorReset
		ignoredReply(),   // cmdSensorEnroll
		ignoredReply(),   // cmdSensorCheck
		buildMarkerReply(rspCheckNotYetEnrolledPrefix, nil, 0), // duplicate check
		ignoredReply(), // cmdEnrollStarting
		ignoredReply(), // per-stage cmdSensorReset
		ignoredReply(), // cmdSensorStartCapture
		buildMarkerReply(rspReadOffcenterPrefix, rspReadOffcenterSuffix, 0), // off-center: retry, stage doesn't advance
	}
	for i := 0; i < EnrollTimes; i++ {
		replies = append(replies,
			ignoredReply(),
			ignoredReply(),
			buildMarkerReply(rspReadSuccessPrefix, rspReadSuccessSuffix, 0),
		)
	}
	replies = append(replies,
		ignoredReply(), // cmdCommitStarting
		ignoredReply(), // new print commit
		ignoredReply(), // final cmdSensorReset
	)
	ft := &fakeTransport{replies: replies}

	var retryKinds []Kind
	fw := &recordingFramework{
		onEnrollProgress: func(stage int, p *Print, err error) {
			if err != nil {
				if kind, ok := AsKind(err); ok {
					retryKinds = append(retryKinds, kind)
				}
			}
		},
	}
	gen := func(Print) string { return "FPtest" }
	_, err := runEnroll(context.Background(), ft, Print{}, gen, fw)
	require.NoError(t, err)
	require.Contains(t, retryKinds, KindRetryCenterFinger)
}

func TestRunEnrollRejectsDuplicate(t *testing.T) {
	replies := [][]byte{
		make([]byte, 10), // runList: empty registry
		ignoredReply(),   // cmdSensorReset
		ignoredReply(),   // cmdSensorEnroll
		ignoredReply(),   // cmdSensorCheck
		buildMarkerReply([]byte{0xFF, 0xFF}, nil, 0), // not the not-yet-enrolled marker: duplicate
	}
	ft := &fakeTransport{replies: replies}
	fw := &recordingFramework{}
	gen := func(Print) string { return "FPtest" }
	_, err := runEnroll(context.Background(), ft, Print{}, gen, fw)
	require.Error(t, err)
	kind, ok := AsKind(err)
	require.True(t, ok)
	require.Equal(t, KindDataDuplicate, kind)
	require.Len(t, ft.sent, 5, "a duplicate abort must not send enroll-start, any capture, or commit-start")
}

func TestRunIdentifyMatchFoundInGallery(t *testing.T) {
	matchedID := NewPrintID([]byte("gallery-entry"))
	reply := make([]byte, identifyResponsePrintIDOffset+fingerprintIDSize+len(rspIdentifyMatchSuffix))
	copy(reply[readPrefixLen+checkBytesLength:], rspIdentifyMatchPrefix)
	copy(reply[len(reply)-len(rspIdentifyMatchSuffix):], rspIdentifyMatchSuffix)
	copy(reply[identifyResponsePrintIDOffset:], matchedID[:])

	ft := &fakeTransport{replies: [][]byte{
		buildListReply([]PrintID{matchedID}),
		ignoredReply(), // cmdSensorReset
		ignoredReply(), // cmdSensorIdentify
		ignoredReply(), // cmdSensorCheck
		reply,
		ignoredReply(), // final cmdSensorReset
	}}

	gallery := []Print{PrintFromID(matchedID)}
	var reported *Print
	fw := &recordingFramework{
		onIdentifyReport: func(matched, print *Print, err error) { reported = matched },
	}
	err := runIdentifyVerify(context.Background(), ft, identifyVerifyArgs{isIdentify: true, gallery: gallery}, fw)
	require.NoError(t, err)
	require.NotNil(t, reported)
	require.True(t, reported.Equal(PrintFromID(matchedID)))
}

func TestRunIdentifyNoMatch(t *testing.T) {
	ft := &fakeTransport{replies: [][]byte{
		buildListReply([]PrintID{NewPrintID([]byte("a"))}),
		ignoredReply(), // cmdSensorReset
		ignoredReply(), // cmdSensorIdentify
		ignoredReply(), // cmdSensorCheck
		buildMarkerReply(rspIdentifyNotmatchPrefix, nil, 0),
		ignoredReply(), // final cmdSensorReset
	}}
	reportCalled := false
	fw := &recordingFramework{
		onIdentifyReport: func(matched, print *Print, err error) { reportCalled = true },
	}
	err := runIdentifyVerify(context.Background(), ft, identifyVerifyArgs{isIdentify: true}, fw)
	require.NoError(t, err)
	require.True(t, reportCalled)
}

func TestRunIdentifyEmptyRegistryIsNotFound(t *testing.T) {
	ft := &fakeTransport{replies: [][]byte{make([]byte, 10)}}
	fw := &recordingFramework{}
	err := runIdentifyVerify(context.Background(), ft, identifyVerifyArgs{isIdentify: true}, fw)
	require.Error(t, err)
	kind, ok := AsKind(err)
	require.True(t, ok)
	require.Equal(t, KindDataNotFound, kind)
}

// recordingFramework is a minimal Framework implementation for tests that
// only need to observe a subset of callbacks.
type recordingFramework struct {
	onReportFingerStatus func(FingerStatus)
	onEnrollProgress     func(stage int, p *Print, err error)
	onIdentifyReport     func(matched, print *Print, err error)
}

func (r *recordingFramework) ReportFingerStatus(s FingerStatus) {
	if r.onReportFingerStatus != nil {
		r.onReportFingerStatus(s)
	}
}
func (r *recordingFramework) EnrollProgress(stage int, p *Print, err error) {
	if r.onEnrollProgress != nil {
		r.onEnrollProgress(stage, p, err)
	}
}
func (r *recordingFramework) EnrollComplete(p *Print, err error) {}
func (r *recordingFramework) IdentifyReport(matched, print *Print, err error) {
	if r.onIdentifyReport != nil {
		r.onIdentifyReport(matched, print, err)
	}
}
func (r *recordingFramework) IdentifyComplete(err error)              {}
func (r *recordingFramework) VerifyReport(bool, *Print, error)        {}
func (r *recordingFramework) VerifyComplete(err error)                {}
func (r *recordingFramework) ListComplete(prints []Print, err error)  {}
func (r *recordingFramework) DeleteComplete(err error)                {}
func (r *recordingFramework) ClearStorageComplete(err error)          {}
