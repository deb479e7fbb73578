package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/insight-go-api/internal/dto"
	"github.com/noah-isme/insight-go-api/internal/models"
)

type pipelineReportRepoStub struct {
	outcomeRepoStub
	created []models.Report
	prior   *models.Report
	nextID  uint
}

func (p *pipelineReportRepoStub) Create(_ context.Context, report *models.Report) error {
	if p.nextID == 0 {
		p.nextID = 1
	}
	report.ID = p.nextID
	report.CreatedAt = time.Now()
	p.nextID++
	p.created = append(p.created, *report)
	return nil
}

func (p *pipelineReportRepoStub) GetByID(_ context.Context, id uint) (models.Report, error) {
	for _, report := range p.created {
		if report.ID == id {
			return report, nil
		}
	}
	return models.Report{}, gorm.ErrRecordNotFound
}

func (p *pipelineReportRepoStub) LatestPriorOfKind(_ context.Context, _ uint, _ string, _ time.Time) (models.Report, error) {
	if p.prior == nil {
		return models.Report{}, gorm.ErrRecordNotFound
	}
	return *p.prior, nil
}

type predictionSvcStub struct {
	registered []models.Prediction
	err        error
}

func (p *predictionSvcStub) Register(_ context.Context, report models.Report, forecasts []dto.ForecastRequest) ([]models.Prediction, error) {
	if p.err != nil {
		return nil, p.err
	}
	for i, forecast := range forecasts {
		p.registered = append(p.registered, models.Prediction{
			ID:             uint(i + 1),
			ReportID:       report.ID,
			StudentID:      report.StudentID,
			Timeframe:      forecast.Timeframe,
			PredictedScore: forecast.PredictedScore,
		})
	}
	return p.registered, nil
}

func (p *predictionSvcStub) Reconcile(_ context.Context, _ dto.ReconcileRequest) (dto.ReconciliationSummary, error) {
	return dto.ReconciliationSummary{}, nil
}

func (p *predictionSvcStub) Stats(_ context.Context, _ *uint) (dto.PredictionStatsResponse, error) {
	return dto.PredictionStatsResponse{}, nil
}

type strategySvcStub struct {
	registered    []models.StrategyRecord
	effectiveness dto.EffectivenessReport
	err           error
}

func (s *strategySvcStub) RegisterBatch(_ context.Context, report models.Report, items []dto.StrategyPrescription) ([]models.StrategyRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	for i, item := range items {
		s.registered = append(s.registered, models.StrategyRecord{
			ID:        uint(i + 1),
			ReportID:  report.ID,
			StudentID: report.StudentID,
			Type:      item.Type,
			Title:     item.Title,
			Status:    models.StrategyStatusPending,
		})
	}
	return s.registered, nil
}

func (s *strategySvcStub) UpdateStatus(_ context.Context, _ uint, _ dto.StrategyStatusUpdateRequest) (dto.StrategyResponse, error) {
	return dto.StrategyResponse{}, nil
}

func (s *strategySvcStub) Effectiveness(_ context.Context, _ *uint) (dto.EffectivenessReport, error) {
	return s.effectiveness, nil
}

type achievementSvcStub struct {
	lastEvent dto.AchievementEvent
	earned    []dto.EarnedAchievementResponse
}

func (a *achievementSvcStub) Evaluate(_ context.Context, event dto.AchievementEvent) ([]dto.EarnedAchievementResponse, error) {
	a.lastEvent = event
	return a.earned, nil
}

func (a *achievementSvcStub) Unnotified(_ context.Context, _ uint) ([]dto.EarnedAchievementResponse, error) {
	return nil, nil
}

func (a *achievementSvcStub) MarkNotified(_ context.Context, _ dto.MarkNotifiedRequest) (dto.MarkNotifiedSummary, error) {
	return dto.MarkNotifiedSummary{}, nil
}

func newPipelineFixture(students map[uint]models.Student) (*pipelineReportRepoStub, *predictionSvcStub, *strategySvcStub, *achievementSvcStub, ReportService) {
	reports := &pipelineReportRepoStub{}
	predictions := &predictionSvcStub{}
	strategies := &strategySvcStub{}
	achievements := &achievementSvcStub{}
	svc := NewReportService(
		&studentRepoStub{students: students},
		reports,
		newStrategyRepoStub(),
		predictions,
		strategies,
		achievements,
		validator.New(validator.WithRequiredStructEnabled()),
		nil,
		"",
		testLogger(),
	)
	return reports, predictions, strategies, achievements, svc
}

func validSaveRequest() dto.ReportCreateRequest {
	return dto.ReportCreateRequest{
		StudentID: 1,
		Kind:      models.ReportKindSingleTest,
		Title:     "6월 단원평가 분석",
		TestLabel: "단원평가",
		Score:     floatPtr(85),
		MaxScore:  floatPtr(100),
		Summary:   "전반적으로 향상됨",
		NextGoals: []string{"오답 유형 정리"},
		TestDate:  time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		Strategies: []dto.StrategyPrescription{
			{Type: models.StrategyTypeConceptReview, Title: "확률 개념 복습"},
		},
		Forecasts: []dto.ForecastRequest{
			{Timeframe: models.TimeframeThreeMonth, PredictedScore: 88, Confidence: "medium"},
		},
	}
}

func TestReportServiceSavePipeline(t *testing.T) {
	reports, predictions, strategies, achievements, svc := newPipelineFixture(map[uint]models.Student{1: baselineStudent(1)})

	response, err := svc.Save(context.Background(), validSaveRequest())
	require.NoError(t, err)

	require.Len(t, reports.created, 1)
	require.Equal(t, models.ReportKindSingleTest, response.Kind)
	require.Equal(t, []string{"오답 유형 정리"}, response.NextGoals)

	require.Len(t, predictions.registered, 1)
	require.Len(t, response.Predictions, 1)
	require.Len(t, strategies.registered, 1)
	require.Equal(t, 1, response.StrategyCount)

	require.Equal(t, dto.TriggerReportSaved, achievements.lastEvent.Trigger)
	require.NotNil(t, achievements.lastEvent.Score)
	require.InDelta(t, 85.0, *achievements.lastEvent.Score, 1e-9)
}

func TestReportServiceSaveRejectsUnknownKind(t *testing.T) {
	_, _, _, _, svc := newPipelineFixture(map[uint]models.Student{1: baselineStudent(1)})

	req := validSaveRequest()
	req.Kind = "quarterly"
	_, err := svc.Save(context.Background(), req)
	require.ErrorIs(t, err, ErrInvalidReportKind)
}

func TestReportServiceSaveUnknownStudent(t *testing.T) {
	reports, _, _, _, svc := newPipelineFixture(map[uint]models.Student{})

	_, err := svc.Save(context.Background(), validSaveRequest())
	require.ErrorIs(t, err, ErrStudentNotFound)
	require.Empty(t, reports.created)
}

func TestReportServiceSaveValidatesPayload(t *testing.T) {
	_, _, _, _, svc := newPipelineFixture(map[uint]models.Student{1: baselineStudent(1)})

	req := validSaveRequest()
	req.StudentID = 0
	_, err := svc.Save(context.Background(), req)
	require.Error(t, err)
}

func TestReportServiceSaveStampsBaselineOnce(t *testing.T) {
	students := map[uint]models.Student{1: {ID: 1, Name: "박서준", Grade: 9}}
	studentRepo := &studentRepoStub{students: students}
	reports := &pipelineReportRepoStub{}
	svc := NewReportService(
		studentRepo,
		reports,
		newStrategyRepoStub(),
		&predictionSvcStub{},
		&strategySvcStub{},
		&achievementSvcStub{},
		validator.New(validator.WithRequiredStructEnabled()),
		nil,
		"",
		testLogger(),
	)

	req := validSaveRequest()
	req.Kind = models.ReportKindBaseline
	req.Score = floatPtr(40)
	req.MaxScore = floatPtr(50)

	_, err := svc.Save(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, studentRepo.students[1].BaselineAt)
	require.Equal(t, req.TestDate, *studentRepo.students[1].BaselineAt)
}

func TestReportServiceSaveSwallowsDuplicateStrategyBatch(t *testing.T) {
	reports := &pipelineReportRepoStub{}
	svc := NewReportService(
		&studentRepoStub{students: map[uint]models.Student{1: baselineStudent(1)}},
		reports,
		newStrategyRepoStub(),
		&predictionSvcStub{},
		&strategySvcStub{err: ErrStrategiesAlreadyRegistered},
		&achievementSvcStub{},
		validator.New(validator.WithRequiredStructEnabled()),
		nil,
		"",
		testLogger(),
	)

	response, err := svc.Save(context.Background(), validSaveRequest())
	require.NoError(t, err, "an existing batch keeps the save successful")
	require.Equal(t, 0, response.StrategyCount)
	require.Len(t, reports.created, 1)
}

func TestReportServiceSaveComputesPreviousScoreForImprovement(t *testing.T) {
	reports := &pipelineReportRepoStub{
		prior: &models.Report{ID: 3, Kind: models.ReportKindSingleTest, Score: floatPtr(70), MaxScore: floatPtr(100)},
	}
	achievements := &achievementSvcStub{}
	svc := NewReportService(
		&studentRepoStub{students: map[uint]models.Student{1: baselineStudent(1)}},
		reports,
		newStrategyRepoStub(),
		&predictionSvcStub{},
		&strategySvcStub{},
		achievements,
		validator.New(validator.WithRequiredStructEnabled()),
		nil,
		"",
		testLogger(),
	)

	_, err := svc.Save(context.Background(), validSaveRequest())
	require.NoError(t, err)
	require.NotNil(t, achievements.lastEvent.PreviousScore)
	require.InDelta(t, 70.0, *achievements.lastEvent.PreviousScore, 1e-9)
}
