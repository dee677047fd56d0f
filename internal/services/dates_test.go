package services

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/entity"
)

var _ = Describe("parseExifDate", func() {
	It("parses the canonical EXIF form", func() {
		t, ok := parseExifDate("2019:02:15 19:35:01")
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(time.Date(2019, 2, 15, 19, 35, 1, 0, time.UTC)))
	})

	It("normalizes dash, slash, dot and backslash separators", func() {
		for _, raw := range []string{
			"2019-02-15 19-35-01",
			"2019/02/15 19/35/01",
			"2019.02.15 19.35.01",
			`2019\02\15 19\35\01`,
		} {
			t, ok := parseExifDate(raw)
			Expect(ok).To(BeTrue(), "raw: %s", raw)
			Expect(t).To(Equal(time.Date(2019, 2, 15, 19, 35, 1, 0, time.UTC)))
		}
	})

	It("truncates subsecond and zone suffixes", func() {
		t, ok := parseExifDate("2019:02:15 19:35:01.123+02:00")
		Expect(ok).To(BeTrue())
		Expect(t.Second()).To(Equal(1))
	})

	It("rejects the ffmpeg sentinel", func() {
		_, ok := parseExifDate("2036:01:01 23:59:59")
		Expect(ok).To(BeFalse())
	})

	It("rejects years outside 1800..2099", func() {
		_, ok := parseExifDate("1799:12:31 23:59:59")
		Expect(ok).To(BeFalse())
		_, ok = parseExifDate("2100:01:01 00:00:00")
		Expect(ok).To(BeFalse())
	})

	It("rejects garbage", func() {
		_, ok := parseExifDate("not a date")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("parseFilenameDate", func() {
	expect := func(basename string, want time.Time) {
		t, ok := parseFilenameDate(basename)
		ExpectWithOffset(1, ok).To(BeTrue(), "basename: %s", basename)
		ExpectWithOffset(1, t).To(Equal(want))
	}

	It("parses known basename shapes", func() {
		expect("Screenshot_20190215-193501.png", time.Date(2019, 2, 15, 19, 35, 1, 0, time.UTC))
		expect("IMG_20190215_193501.MP4", time.Date(2019, 2, 15, 19, 35, 1, 0, time.UTC))
		expect("VID_20190215_193501.mp4", time.Date(2019, 2, 15, 19, 35, 1, 0, time.UTC))
		expect("signal-2020-01-02-123456.jpg", time.Date(2020, 1, 2, 12, 34, 56, 0, time.UTC))
		expect("2019_02_15_19_35_01.jpg", time.Date(2019, 2, 15, 19, 35, 1, 0, time.UTC))
		expect("00001BURST20171111030039_COVER.jpg", time.Date(2017, 11, 11, 3, 0, 39, 0, time.UTC))
		expect("20190215193501123.jpg", time.Date(2019, 2, 15, 19, 35, 1, 0, time.UTC))
	})

	It("parses dates far in the past", func() {
		expect("18691230_165957.jpg", time.Date(1869, 12, 30, 16, 59, 57, 0, time.UTC))
	})

	It("rejects years outside 1800..2099", func() {
		_, ok := parseFilenameDate("17991230_165957.jpg")
		Expect(ok).To(BeFalse())
	})

	It("rejects names without a date", func() {
		_, ok := parseFilenameDate("holiday-photo.jpg")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("ExtractDatesStep", func() {
	var inputDir, outputDir string

	BeforeEach(func() {
		var err error
		inputDir, err = os.MkdirTemp("", "dates-in-*")
		Expect(err).To(BeNil())
		outputDir, err = os.MkdirTemp("", "dates-out-*")
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		os.RemoveAll(inputDir)
		os.RemoveAll(outputDir)
	})

	It("prefers the sidecar timestamp and records the histogram", func() {
		mediaPath := filepath.Join(inputDir, "Photos from 2019", "IMG_20190215_193501.MP4")
		writeTestFile(mediaPath, "video-bytes")
		writeTestFile(mediaPath+".json", `{"photoTakenTime": {"timestamp": "1550259301"}}`)

		ctx := testContext(inputDir, outputDir)
		e := entity.NewMediaEntity(entity.NewFileEntity(mediaPath, true))
		ctx.Collection.Add(e)

		step := NewExtractDatesStep()
		result := step.Execute(ctx)

		Expect(result.Success).To(BeTrue())
		Expect(result.Data["extraction_histogram"]).To(HaveKeyWithValue("json", 1))

		Expect(e.DateTaken).ToNot(BeNil())
		Expect(e.DateTaken.Unix()).To(Equal(int64(1550259301)))
		Expect(e.DateAccuracy).To(Equal(entity.AccuracyJSON))
	})

	It("matches a truncated sidecar for long media names", func() {
		base := "a_very_long_photo_name_that_google_cut_off_somewhere.jpg"
		mediaPath := filepath.Join(inputDir, "Photos from 2019", base)
		writeTestFile(mediaPath, "bytes")
		writeTestFile(filepath.Join(inputDir, "Photos from 2019", base[:46]+".json"),
			`{"photoTakenTime": {"timestamp": "1550259301"}}`)

		ctx := testContext(inputDir, outputDir)
		e := entity.NewMediaEntity(entity.NewFileEntity(mediaPath, true))
		ctx.Collection.Add(e)

		NewExtractDatesStep().Execute(ctx)

		Expect(e.DateMethod).To(Equal(entity.MethodJSON))
		Expect(e.DateTaken.Unix()).To(Equal(int64(1550259301)))
	})

	It("falls back to the filename pattern", func() {
		mediaPath := filepath.Join(inputDir, "Vacation", "IMG_20190215_193501.jpg")
		writeTestFile(mediaPath, "bytes")

		ctx := testContext(inputDir, outputDir)
		e := entity.NewMediaEntity(entity.NewFileEntity(mediaPath, false))
		ctx.Collection.Add(e)

		NewExtractDatesStep().Execute(ctx)

		Expect(e.DateMethod).To(Equal(entity.MethodFilename))
		Expect(*e.DateTaken).To(Equal(time.Date(2019, 2, 15, 19, 35, 1, 0, time.UTC)))
	})

	It("falls back to the year folder", func() {
		mediaPath := filepath.Join(inputDir, "Photos from 2019", "holiday.jpg")
		writeTestFile(mediaPath, "bytes")

		ctx := testContext(inputDir, outputDir)
		e := entity.NewMediaEntity(entity.NewFileEntity(mediaPath, true))
		ctx.Collection.Add(e)

		NewExtractDatesStep().Execute(ctx)

		Expect(e.DateMethod).To(Equal(entity.MethodFolder))
		Expect(*e.DateTaken).To(Equal(time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)))
	})

	It("leaves undatable entities dateless", func() {
		mediaPath := filepath.Join(inputDir, "Vacation", "holiday.xyz")
		writeTestFile(mediaPath, "bytes")

		ctx := testContext(inputDir, outputDir)
		e := entity.NewMediaEntity(entity.NewFileEntity(mediaPath, false))
		ctx.Collection.Add(e)

		result := NewExtractDatesStep().Execute(ctx)

		Expect(e.DateTaken).To(BeNil())
		Expect(e.DateAccuracy).To(Equal(entity.AccuracyUnset))
		Expect(result.Data["extraction_histogram"]).To(HaveKeyWithValue("none", 1))
	})
})
