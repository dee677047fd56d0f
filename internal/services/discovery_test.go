package services

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/config"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/entity"
)

var _ = Describe("DiscoveryStep", func() {
	var inputDir, outputDir string

	BeforeEach(func() {
		var err error
		inputDir, err = os.MkdirTemp("", "discovery-in-*")
		Expect(err).To(BeNil())
		outputDir, err = os.MkdirTemp("", "discovery-out-*")
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		os.RemoveAll(inputDir)
		os.RemoveAll(outputDir)
	})

	It("classifies year and album folders and builds entities", func() {
		writeTestFile(filepath.Join(inputDir, "Photos from 2022", "a.jpg"), "AAA")
		writeTestFile(filepath.Join(inputDir, "Vacation", "a.jpg"), "AAA")
		writeTestFile(filepath.Join(inputDir, "Vacation", "metadata.json"), `{"title": "Summer Vacation"}`)
		writeTestFile(filepath.Join(inputDir, "NotMedia", "readme.txt"), "nope")

		ctx := testContext(inputDir, outputDir)
		result := NewDiscoveryStep().Execute(ctx)

		Expect(result.Success).To(BeTrue())
		Expect(ctx.Collection.Len()).To(Equal(2))

		var canonical, albumEntity *entity.MediaEntity
		for _, e := range ctx.Collection.Entities() {
			if e.Primary.IsCanonical {
				canonical = e
			} else {
				albumEntity = e
			}
		}

		Expect(canonical).ToNot(BeNil())
		Expect(canonical.Albums).To(BeEmpty())

		Expect(albumEntity).ToNot(BeNil())
		Expect(albumEntity.Albums).To(HaveKey("Summer Vacation"))

		Expect(ctx.Albums).To(HaveKey("Summer Vacation"))
	})

	It("extracts the partner-sharing flag from the sidecar", func() {
		mediaPath := filepath.Join(inputDir, "Photos from 2022", "a.jpg")
		writeTestFile(mediaPath, "AAA")
		writeTestFile(mediaPath+".json", `{"googlePhotosOrigin": {"fromPartnerSharing": {}}}`)

		ctx := testContext(inputDir, outputDir)
		NewDiscoveryStep().Execute(ctx)

		entities := ctx.Collection.Entities()
		Expect(entities).To(HaveLen(1))
		Expect(entities[0].PartnerShared).To(BeTrue())
	})

	It("skips trashed entities", func() {
		mediaPath := filepath.Join(inputDir, "Photos from 2022", "a.jpg")
		writeTestFile(mediaPath, "AAA")
		writeTestFile(mediaPath+".json", `{"trashed": true}`)
		writeTestFile(filepath.Join(inputDir, "Photos from 2022", "b.jpg"), "BBB")

		ctx := testContext(inputDir, outputDir)
		result := NewDiscoveryStep().Execute(ctx)

		Expect(ctx.Collection.Len()).To(Equal(1))
		Expect(result.Data["trashed_skipped"]).To(Equal(1))
	})

	It("drops extras when configured", func() {
		writeTestFile(filepath.Join(inputDir, "Photos from 2020", "pic.jpg"), "AAA")
		writeTestFile(filepath.Join(inputDir, "Photos from 2020", "pic-edited.jpg"), "BBB")

		ctx := testContext(inputDir, outputDir, config.WithSkipExtras(true))
		result := NewDiscoveryStep().Execute(ctx)

		Expect(ctx.Collection.Len()).To(Equal(1))
		Expect(result.Data["extras_skipped"]).To(Equal(1))
		Expect(ctx.Collection.Entities()[0].Primary.Basename()).To(Equal("pic.jpg"))
	})

	It("descends into a Takeout/Google Photos wrapper", func() {
		writeTestFile(filepath.Join(inputDir, "Takeout", "Google Photos", "Photos from 2022", "a.jpg"), "AAA")

		ctx := testContext(inputDir, outputDir)
		result := NewDiscoveryStep().Execute(ctx)

		Expect(result.Success).To(BeTrue())
		Expect(ctx.Collection.Len()).To(Equal(1))
	})

	It("fails for a missing input directory", func() {
		ctx := testContext(filepath.Join(inputDir, "missing"), outputDir)
		result := NewDiscoveryStep().Execute(ctx)
		Expect(result.Success).To(BeFalse())
	})
})

var _ = Describe("DedupStep", func() {
	var inputDir, outputDir string

	BeforeEach(func() {
		var err error
		inputDir, err = os.MkdirTemp("", "dedup-in-*")
		Expect(err).To(BeNil())
		outputDir, err = os.MkdirTemp("", "dedup-out-*")
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		os.RemoveAll(inputDir)
		os.RemoveAll(outputDir)
	})

	It("merges identical files across year and album folders", func() {
		writeTestFile(filepath.Join(inputDir, "Photos from 2022", "a.jpg"), "same-bytes")
		writeTestFile(filepath.Join(inputDir, "Vacation", "a.jpg"), "same-bytes")

		ctx := testContext(inputDir, outputDir)
		NewDiscoveryStep().Execute(ctx)
		Expect(ctx.Collection.Len()).To(Equal(2))

		result := NewDedupStep().Execute(ctx)

		Expect(result.Success).To(BeTrue())
		Expect(result.Data["duplicates_removed"]).To(Equal(1))
		Expect(ctx.Collection.Len()).To(Equal(1))

		e := ctx.Collection.Entities()[0]
		Expect(e.Primary.IsCanonical).To(BeTrue())
		Expect(e.Secondaries).To(HaveLen(1))
		Expect(e.Albums).To(HaveKey("Vacation"))
	})

	It("keeps same-size files with different content apart", func() {
		writeTestFile(filepath.Join(inputDir, "Photos from 2022", "a.jpg"), "bytes-one")
		writeTestFile(filepath.Join(inputDir, "Photos from 2022", "b.jpg"), "bytes-two")

		ctx := testContext(inputDir, outputDir)
		NewDiscoveryStep().Execute(ctx)

		result := NewDedupStep().Execute(ctx)

		Expect(result.Data["duplicates_removed"]).To(Equal(0))
		Expect(ctx.Collection.Len()).To(Equal(2))
	})

	It("never merges files over the size cap", func() {
		writeTestFile(filepath.Join(inputDir, "Photos from 2022", "a.jpg"), "same-bytes")
		writeTestFile(filepath.Join(inputDir, "Vacation", "a.jpg"), "same-bytes")

		ctx := testContext(inputDir, outputDir,
			config.WithEnforceMaxFileSize(true),
			config.WithMaxFileSize(4))
		NewDiscoveryStep().Execute(ctx)

		result := NewDedupStep().Execute(ctx)

		Expect(result.Data["duplicates_removed"]).To(Equal(0))
		Expect(ctx.Collection.Len()).To(Equal(2))
	})
})

var _ = Describe("ConsolidateAlbumsStep", func() {
	It("repairs memberships for files that joined after discovery", func() {
		inputDir, err := os.MkdirTemp("", "consolidate-in-*")
		Expect(err).To(BeNil())
		defer os.RemoveAll(inputDir)
		outputDir, err := os.MkdirTemp("", "consolidate-out-*")
		Expect(err).To(BeNil())
		defer os.RemoveAll(outputDir)

		albumFile := filepath.Join(inputDir, "Trip", "x.jpg")
		writeTestFile(albumFile, "bytes")

		ctx := testContext(inputDir, outputDir)
		ctx.RegisterAlbum("Trip", filepath.Join(inputDir, "Trip"))

		// Entity carries the album file but lost the membership.
		e := entity.NewMediaEntity(entity.NewFileEntity(filepath.Join(inputDir, "Photos from 2021", "x.jpg"), true))
		e.Secondaries = append(e.Secondaries, entity.NewFileEntity(albumFile, false))
		ctx.Collection.Add(e)

		result := NewConsolidateAlbumsStep().Execute(ctx)

		Expect(result.Success).To(BeTrue())
		Expect(e.Albums).To(HaveKey("Trip"))

		// Running it again changes nothing.
		again := NewConsolidateAlbumsStep().Execute(ctx)
		Expect(again.Data["memberships_repaired"]).To(Equal(0))
	})
})
