package evaluator

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/haukened/callguard/internal/guard/common/clock"
	"github.com/haukened/callguard/internal/guard/domain"
	"github.com/haukened/callguard/internal/guard/repos/denylist"
	"github.com/haukened/callguard/internal/guard/repos/reportqueue"
	"github.com/haukened/callguard/internal/guard/services/lexicon"
)

var evalTime = time.Date(2025, 11, 11, 21, 30, 0, 0, time.UTC)

type mockDenylist struct {
	mock.Mock
}

func (m *mockDenylist) IsListed(number string) bool {
	args := m.Called(number)
	return args.Bool(0)
}

func (m *mockDenylist) RecordDetection(number, label string, international bool, at time.Time) domain.ListedNumber {
	m.Called(number, label, international, at)
	return domain.NewDetectedNumber(number, label, international, at)
}

type recordingObserver struct {
	numbers []string
	results []domain.CallEvaluationResult
}

func (o *recordingObserver) Observe(number string, result domain.CallEvaluationResult) {
	o.numbers = append(o.numbers, number)
	o.results = append(o.results, result)
}

type countingMetrics struct {
	actions    []string
	detections int
	reports    int
}

func (c *countingMetrics) ObserveEvaluation(action string, _ time.Duration) {
	c.actions = append(c.actions, action)
}
func (c *countingMetrics) IncrementDetections() { c.detections++ }
func (c *countingMetrics) IncrementReports()    { c.reports++ }

type fixture struct {
	engine   *Engine
	denylist *mockDenylist
	reports  *reportqueue.Queue
	observer *recordingObserver
	metrics  *countingMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		denylist: &mockDenylist{},
		reports:  reportqueue.New(nil),
		observer: &recordingObserver{},
		metrics:  &countingMetrics{},
	}
	f.engine = NewEngine(EngineOptions{
		Denylist:  f.denylist,
		Scorer:    lexicon.New(lexicon.DefaultKeywords),
		Reports:   f.reports,
		Clock:     &clock.MockClock{CurrentTime: evalTime},
		Metrics:   f.metrics,
		Observers: []Observer{f.observer},
	})
	return f
}

func allOn() domain.Options {
	return domain.Options{
		BlockInternational: true,
		BlockAuthorityList: true,
		EnableAIDetection:  true,
		ShowWarnings:       true,
		AutoReport:         true,
	}
}

func TestEvaluate_InternationalBlockedByPolicy(t *testing.T) {
	f := newFixture(t)

	res := f.engine.Evaluate("+441234567890", true, "", domain.Options{BlockInternational: true})

	assert.Equal(t, domain.ActionBlock, res.Action())
	assert.Equal(t, []string{domain.ReasonInternationalBlocked}, res.Reasons())
	assert.Empty(t, res.Notifications())
	assert.Equal(t, evalTime, res.EvaluatedAt())
	assert.Zero(t, f.reports.Len())
	f.denylist.AssertNotCalled(t, "IsListed", mock.Anything)
}

func TestEvaluate_InternationalBlockIgnoresOtherFlags(t *testing.T) {
	f := newFixture(t)
	f.denylist.On("IsListed", "+6531234567").Return(false)

	opts := allOn()
	opts.EnableAIDetection = false
	opts.ShowWarnings = false
	opts.AutoReport = false
	res := f.engine.Evaluate("+6531234567", true, "", opts)

	assert.Equal(t, domain.ActionBlock, res.Action())
}

func TestEvaluate_AuthorityListMatch(t *testing.T) {
	f := newFixture(t)
	f.denylist.On("IsListed", "0330000000").Return(true)

	res := f.engine.Evaluate("0330000000", false, "", domain.Options{BlockAuthorityList: true})

	assert.Equal(t, domain.ActionBlock, res.Action())
	assert.Equal(t, []string{domain.ReasonAuthorityListMatch}, res.Reasons())
	f.denylist.AssertExpectations(t)
}

func TestEvaluate_InternationalAndListedBothReasons(t *testing.T) {
	f := newFixture(t)
	f.denylist.On("IsListed", "+442079460999").Return(true)

	res := f.engine.Evaluate("+442079460999", true, "", domain.Options{
		BlockInternational: true,
		BlockAuthorityList: true,
	})

	assert.Equal(t, domain.ActionBlock, res.Action())
	assert.Equal(t, []string{domain.ReasonInternationalBlocked, domain.ReasonAuthorityListMatch}, res.Reasons())
}

func TestEvaluate_KeywordOnceWarnsTwiceBlocks(t *testing.T) {
	opts := domain.Options{EnableAIDetection: true}

	t.Run("once", func(t *testing.T) {
		f := newFixture(t)
		f.denylist.On("RecordDetection", "0312345678", `AI detection: suspicious keyword "口座" (1x)`, false, evalTime).Once()

		res := f.engine.Evaluate("0312345678", false, "口座番号を教えてください", opts)

		assert.Equal(t, domain.ActionWarn, res.Action())
		assert.Equal(t, []string{`AI detection: suspicious keyword "口座" (1x)`}, res.Reasons())
		f.denylist.AssertExpectations(t)
		assert.Equal(t, 1, f.metrics.detections)
	})

	t.Run("twice", func(t *testing.T) {
		f := newFixture(t)
		f.denylist.On("RecordDetection", "0312345678", `AI detection: suspicious keyword "口座" (2x)`, false, evalTime).Once()

		res := f.engine.Evaluate("0312345678", false, "口座 口座", opts)

		assert.Equal(t, domain.ActionBlock, res.Action())
		f.denylist.AssertExpectations(t)
	})
}

func TestEvaluate_BlockIsNotDowngradedByWeakKeyword(t *testing.T) {
	f := newFixture(t)
	f.denylist.On("IsListed", "0330000000").Return(true)
	f.denylist.On("RecordDetection", "0330000000", mock.Anything, false, evalTime).Once()

	res := f.engine.Evaluate("0330000000", false, "至急", domain.Options{
		BlockAuthorityList: true,
		EnableAIDetection:  true,
		ShowWarnings:       true,
	})

	assert.Equal(t, domain.ActionBlock, res.Action())
	assert.Equal(t, []string{
		domain.ReasonAuthorityListMatch,
		`AI detection: suspicious keyword "至急" (1x)`,
	}, res.Reasons())
	f.denylist.AssertExpectations(t)
}

func TestEvaluate_NoFlagsYieldsNoRisk(t *testing.T) {
	f := newFixture(t)

	res := f.engine.Evaluate("0120000000", true, "口座 口座 口座", domain.Options{})

	assert.Equal(t, domain.ActionAllow, res.Action())
	assert.Equal(t, []string{domain.ReasonNoRisk}, res.Reasons())
	assert.Empty(t, res.Notifications())
	f.denylist.AssertNotCalled(t, "RecordDetection", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluate_DomesticAllClearStaysAllow(t *testing.T) {
	f := newFixture(t)
	f.denylist.On("IsListed", "0120000000").Return(false)

	res := f.engine.Evaluate("0120000000", false, "こんにちは", allOn())

	assert.Equal(t, domain.ActionAllow, res.Action())
	assert.Equal(t, []string{domain.ReasonNoRisk}, res.Reasons())
	assert.Zero(t, f.reports.Len(), "allowed calls are never reported")
}

func TestEvaluate_InternationalNoticeWhenWarningsOn(t *testing.T) {
	f := newFixture(t)

	res := f.engine.Evaluate("+6531234567", true, "", domain.Options{ShowWarnings: true})

	assert.Equal(t, domain.ActionWarn, res.Action())
	assert.Equal(t, []string{domain.ReasonInternationalNotice}, res.Reasons())
}

func TestEvaluate_AutoReportOnWarn(t *testing.T) {
	f := newFixture(t)

	res := f.engine.Evaluate("+6531234567", true, "", domain.Options{ShowWarnings: true, AutoReport: true})

	assert.Equal(t, domain.ActionWarn, res.Action())
	assert.Equal(t, []string{domain.NotificationReportQueued}, res.Notifications())
	assert.Equal(t, []string{"+6531234567 WARN and shared anonymously with authorities"}, f.reports.Snapshot())
	assert.Equal(t, 1, f.metrics.reports)
}

func TestEvaluate_ListedWithRepeatedKeyword(t *testing.T) {
	f := newFixture(t)
	f.denylist.On("IsListed", "0330000000").Return(true)
	f.denylist.On("RecordDetection", "0330000000", `AI detection: suspicious keyword "口座" (2x)`, false, evalTime).Once()

	res := f.engine.Evaluate("0330000000", false, "口座 口座", allOn())

	assert.Equal(t, domain.ActionBlock, res.Action())
	assert.Contains(t, res.Reasons(), domain.ReasonAuthorityListMatch)
	assert.Contains(t, res.Reasons(), `AI detection: suspicious keyword "口座" (2x)`)
	assert.Equal(t, []string{"0330000000 BLOCK and shared anonymously with authorities"}, f.reports.Snapshot())
	assert.Equal(t, []string{domain.NotificationReportQueued}, res.Notifications())
	f.denylist.AssertExpectations(t)
}

func TestEvaluate_NotifiesObserversInOrder(t *testing.T) {
	f := newFixture(t)
	f.denylist.On("IsListed", mock.Anything).Return(false)

	f.engine.Evaluate("0120000000", false, "", allOn())
	f.engine.Evaluate("+6531234567", true, "", allOn())

	require.Len(t, f.observer.results, 2)
	assert.Equal(t, []string{"0120000000", "+6531234567"}, f.observer.numbers)
	assert.Equal(t, domain.ActionAllow, f.observer.results[0].Action())
	assert.Equal(t, domain.ActionBlock, f.observer.results[1].Action())
	assert.Equal(t, []string{"ALLOW", "BLOCK"}, f.metrics.actions)
}

func TestNewEngine_Defaults(t *testing.T) {
	e := NewEngine(EngineOptions{
		Denylist: &mockDenylist{},
		Scorer:   lexicon.New(nil),
		Reports:  reportqueue.New(nil),
	})
	res := e.Evaluate("", false, "", domain.Options{})
	assert.Equal(t, domain.ActionAllow, res.Action())
	assert.False(t, res.EvaluatedAt().IsZero())
}

func TestReportLine(t *testing.T) {
	assert.Equal(t, "050-1234-5678 BLOCK and shared anonymously with authorities",
		ReportLine("050-1234-5678", domain.ActionBlock))
}

func TestEvaluate_ConcurrentCallsAreSerialized(t *testing.T) {
	const calls = 64
	store := denylist.New(denylist.Options{})
	reports := reportqueue.New(nil)
	observer := &recordingObserver{}
	e := NewEngine(EngineOptions{
		Denylist:  store,
		Scorer:    lexicon.New(lexicon.DefaultKeywords),
		Reports:   reports,
		Clock:     &clock.MockClock{CurrentTime: evalTime},
		Observers: []Observer{observer},
	})

	opts := domain.Options{EnableAIDetection: true, AutoReport: true}
	var wg sync.WaitGroup
	for i := range calls {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Evaluate(fmt.Sprintf("0901234%04d", i), false, "至急ご確認ください", opts)
		}()
	}
	wg.Wait()

	queued := reports.Snapshot()
	detected := store.AIDetected()
	require.Len(t, queued, calls)
	require.Len(t, detected, calls)
	require.Len(t, observer.numbers, calls)

	// Reports append while detections prepend, so one order is the reverse of
	// the other when no two evaluations interleave.
	for i, line := range queued {
		number := detected[calls-1-i].Number
		assert.Equal(t, ReportLine(number, domain.ActionWarn), line, "report %d", i)
		assert.Equal(t, number, observer.numbers[i], "observer %d", i)
	}
}
