package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/euicc/internal/metrics"
)

func TestImportJSON_SkipsDuplicateWithinBatch(t *testing.T) {
	svc, _, _ := newTestService(t)

	result, err := svc.ImportJSON(context.Background(), []RawFields{
		{"name": "X", "iccid": "222"},
		{"name": "Y", "iccid": "222"},
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.ImportedCount)
	assert.Equal(t, 1, result.SkippedCount)
	assert.Equal(t, "X", result.Imported[0].Name)
	assert.Equal(t, SkippedRecord{ICCID: "222", Reason: ReasonAlreadyExists}, result.Skipped[0])
}

func TestImportJSON_MissingICCIDIsSkipped(t *testing.T) {
	svc, _, _ := newTestService(t)

	result, err := svc.ImportJSON(context.Background(), []RawFields{
		{"name": "no iccid"},
		{"name": "ok", "iccid": "1", "imsi": "001", "status": "enabled", "standard": "SGP.02", "extra": 42.0},
	})
	require.NoError(t, err)

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, ReasonMissingICCID, result.Skipped[0].Reason)
	assert.Equal(t, RawFields{"name": "no iccid"}, result.Skipped[0].Data)

	require.Len(t, result.Imported, 1)
	p := result.Imported[0]
	assert.Equal(t, StatusEnabled, p.Status)
	assert.Equal(t, "SGP.02", p.Standard)
	require.NotNil(t, p.IMSI)
	assert.Equal(t, "001", *p.IMSI)
}

func TestImportJSON_MissingNameAbortsBatch(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ImportJSON(ctx, []RawFields{
		{"name": "first", "iccid": "1"},
		{"iccid": "2"},
		{"name": "third", "iccid": "3"},
	})
	require.Error(t, err)
	assert.True(t, IsBadRequest(err))
	assert.Equal(t, "Error importing profiles: field required: name", err.Error())

	profiles, err := svc.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1, "records before the failure stay stored")
	assert.Equal(t, "1", profiles[0].ICCID)
}

func TestImportJSON_NonStringField(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ImportJSON(context.Background(), []RawFields{{"name": "A", "iccid": 8991101200003204514.0}})
	require.Error(t, err)
	assert.True(t, IsBadRequest(err))
	assert.Contains(t, err.Error(), "field iccid must be a string")
}

func TestImportJSON_ExistingBeatsValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	mustCreateProfile(t, svc, "A", "111")

	result, err := svc.ImportJSON(context.Background(), []RawFields{{"iccid": "111"}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SkippedCount)
}

func TestImportCSV(t *testing.T) {
	svc, _, _ := newTestService(t)
	mustCreateProfile(t, svc, "existing", "8991101200003204500")

	csvData := "\ufeffname,iccid,imsi,ki,opc,standard,status,carrier\n" +
		"Alpha, 8991101200003204501 ,001010000000001,,,SGP.21,enabled,ACME\n" +
		",8991101200003204502,,,,,,\n" +
		"NoICCID,,001,,,,,ACME\n" +
		"Dup,8991101200003204500,,,,,,\n" +
		"Short,8991101200003204503\n"

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csvData))
	require.NoError(t, err)

	assert.Equal(t, 3, result.ImportedCount)
	assert.Equal(t, 2, result.SkippedCount)

	alpha := result.Imported[0]
	assert.Equal(t, "Alpha", alpha.Name)
	assert.Equal(t, "8991101200003204501", alpha.ICCID)
	assert.Equal(t, "SGP.21", alpha.Standard)
	assert.Equal(t, StatusEnabled, alpha.Status)
	assert.Nil(t, alpha.Ki, "empty optional cells are stored as null")

	unnamed := result.Imported[1]
	assert.Equal(t, "Imported Profile", unnamed.Name)
	assert.Equal(t, DefaultStandard, unnamed.Standard)
	assert.Equal(t, StatusDisabled, unnamed.Status)

	assert.Equal(t, "Short", result.Imported[2].Name)

	assert.Equal(t, ReasonMissingICCID, result.Skipped[0].Reason)
	assert.Equal(t, "NoICCID", result.Skipped[0].Row["name"])
	assert.Equal(t, "ACME", result.Skipped[0].Row["carrier"])
	assert.Equal(t, SkippedRecord{ICCID: "8991101200003204500", Reason: ReasonAlreadyExists}, result.Skipped[1])
}

func TestImportCSV_EmptyAndHeaderOnly(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, input := range []string{"", "name,iccid\n"} {
		result, err := svc.ImportCSV(context.Background(), strings.NewReader(input))
		require.NoError(t, err)
		assert.Zero(t, result.ImportedCount)
		assert.Empty(t, result.Imported)
		assert.NotNil(t, result.Skipped)
	}
}

func TestImportCSV_HeadersAreCaseSensitive(t *testing.T) {
	svc, _, _ := newTestService(t)

	result, err := svc.ImportCSV(context.Background(), strings.NewReader("Name,ICCID\nA,123\n"))
	require.NoError(t, err)
	assert.Zero(t, result.ImportedCount)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, ReasonMissingICCID, result.Skipped[0].Reason)
}

func TestImportCSV_InvalidUTF8(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ImportCSV(context.Background(), strings.NewReader("name,iccid\n\xff,1\n"))
	require.Error(t, err)
	assert.True(t, IsBadRequest(err))
	assert.True(t, strings.HasPrefix(err.Error(), "Error importing CSV: encoding error"), err.Error())
}

func TestImportCSV_InvalidStatusIsSkipped(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	csvData := "name,iccid,status\nA,111,enabled\nB,222,active\nC,333,disabled\n"
	result, err := svc.ImportCSV(ctx, strings.NewReader(csvData))
	require.NoError(t, err)

	require.Equal(t, 2, result.ImportedCount)
	assert.Equal(t, "111", result.Imported[0].ICCID)
	assert.Equal(t, "333", result.Imported[1].ICCID)

	require.Equal(t, 1, result.SkippedCount)
	assert.Equal(t, SkippedRecord{ICCID: "222", Reason: ReasonInvalidStatus}, result.Skipped[0])

	n, err := st.Profiles().Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestImportText_InvalidStatusIsSkipped(t *testing.T) {
	svc, _, _ := newTestService(t)

	scan := ScanText("ICCID: 8991101200003204514\nState: Active\n")
	require.Len(t, scan.Profiles, 1)
	records := []RawFields{}
	for _, p := range scan.Profiles {
		fields := RawFields{}
		for k, v := range p {
			fields[k] = v
		}
		records = append(records, fields)
	}

	result, err := svc.ImportText(context.Background(), records)
	require.NoError(t, err)
	assert.Zero(t, result.ImportedCount)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, ReasonInvalidStatus, result.Skipped[0].Reason)
	assert.Equal(t, "8991101200003204514", result.Skipped[0].ICCID)
}

func TestImportJSON_InvalidStatusAbortsBatch(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ImportJSON(context.Background(), []RawFields{
		{"name": "A", "iccid": "1", "status": "active"},
	})
	require.Error(t, err)
	assert.True(t, IsBadRequest(err))
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestImportText_Defaults(t *testing.T) {
	svc, _, _ := newTestService(t)

	result, err := svc.ImportText(context.Background(), []RawFields{
		{"iccid": "8991101200003204514"},
		{"name": "Named", "iccid": "8991101200003204515", "status": "enabled"},
		{"name": "no iccid"},
	})
	require.NoError(t, err)

	require.Len(t, result.Imported, 2)
	assert.Equal(t, "Profile 8991101200", result.Imported[0].Name)
	assert.Equal(t, DefaultStandard, result.Imported[0].Standard)
	assert.Equal(t, StatusDisabled, result.Imported[0].Status)
	assert.Equal(t, StatusEnabled, result.Imported[1].Status)

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, RawFields{"name": "no iccid"}, result.Skipped[0].Data)
}

func TestScanThenImport(t *testing.T) {
	svc, _, _ := newTestService(t)

	scan := ScanText("ICCID: 8991101200003204514\nName: Test\n")
	records := make([]RawFields, 0, len(scan.Profiles))
	for _, p := range scan.Profiles {
		fields := RawFields{}
		for k, v := range p {
			fields[k] = v
		}
		records = append(records, fields)
	}

	result, err := svc.ImportText(context.Background(), records)
	require.NoError(t, err)
	require.Equal(t, 1, result.ImportedCount)
	assert.Equal(t, "Test", result.Imported[0].Name)
}

func TestImport_TooManyConcurrent(t *testing.T) {
	limiter := NewImportLimiter(1, 10*time.Millisecond)
	svc, _, _ := newTestService(t, WithImportLimiter(limiter))

	require.NoError(t, limiter.Acquire(context.Background()))
	defer limiter.Release()

	_, err := svc.ImportJSON(context.Background(), []RawFields{{"name": "A", "iccid": "1"}})
	require.Error(t, err)
	assert.Equal(t, KindUnavailable, KindOf(err))
	assert.Equal(t, CodeTooManyImports, MapError(err).Code)
}

func TestImport_RecordsMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	svc, _, _ := newTestService(t, WithMetrics(m))

	_, err := svc.ImportJSON(context.Background(), []RawFields{
		{"name": "A", "iccid": "1"},
		{"name": "B", "iccid": "1"},
		{"name": "C"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImportedProfiles.WithLabelValues(SourceJSON)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SkippedProfiles.WithLabelValues(SourceJSON, ReasonAlreadyExists)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SkippedProfiles.WithLabelValues(SourceJSON, ReasonMissingICCID)))
}
