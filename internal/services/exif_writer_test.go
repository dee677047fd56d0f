package services

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("buildTags", func() {
	It("emits all three datetime tags in EXIF format", func() {
		date := time.Date(2019, 2, 15, 19, 35, 1, 0, time.UTC)
		tags := buildTags(&date, 0, 0, false)

		Expect(tags).To(HaveKeyWithValue("DateTimeOriginal", "2019:02:15 19:35:01"))
		Expect(tags).To(HaveKeyWithValue("DateTimeDigitized", "2019:02:15 19:35:01"))
		Expect(tags).To(HaveKeyWithValue("DateTime", "2019:02:15 19:35:01"))
		Expect(tags).ToNot(HaveKey("GPSLatitude"))
	})

	It("emits hemisphere references for southern and western coordinates", func() {
		tags := buildTags(nil, -33.8688, -151.2093, true)

		Expect(tags).To(HaveKeyWithValue("GPSLatitudeRef", "S"))
		Expect(tags).To(HaveKeyWithValue("GPSLongitudeRef", "W"))
		Expect(tags["GPSLatitude"]).To(HavePrefix("33.86"))
		Expect(tags["GPSLongitude"]).To(HavePrefix("151.20"))
	})

	It("combines date and GPS tags", func() {
		date := time.Date(2019, 2, 15, 19, 35, 1, 0, time.UTC)
		tags := buildTags(&date, 48.8584, 2.2945, true)

		Expect(tags).To(HaveKey("DateTimeOriginal"))
		Expect(tags).To(HaveKeyWithValue("GPSLatitudeRef", "N"))
		Expect(tags).To(HaveKeyWithValue("GPSLongitudeRef", "E"))
	})
})

var _ = Describe("WriteExifStep", func() {
	It("skips when exif writing is disabled", func() {
		ctx := testContext("/in", "/out")
		Expect(NewWriteExifStep().ShouldSkip(ctx)).To(BeTrue())
	})
})
