package services

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/config"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/entity"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/pipeline"
)

var _ = Describe("MoveFilesStep", func() {
	var inputDir, outputDir string

	BeforeEach(func() {
		var err error
		inputDir, err = os.MkdirTemp("", "move-in-*")
		Expect(err).To(BeNil())
		outputDir, err = os.MkdirTemp("", "move-out-*")
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		os.RemoveAll(inputDir)
		os.RemoveAll(outputDir)
	})

	runStages := func(ctx *pipeline.Context) {
		Expect(NewDiscoveryStep().Execute(ctx).Success).To(BeTrue())
		Expect(NewDedupStep().Execute(ctx).Success).To(BeTrue())
		Expect(NewExtractDatesStep().Execute(ctx).Success).To(BeTrue())
		NewConsolidateAlbumsStep().Execute(ctx)
		Expect(NewMoveFilesStep().Execute(ctx).Success).To(BeTrue())
	}

	Describe("nothing strategy", func() {
		It("moves every physical file into date-divided ALL_PHOTOS", func() {
			mediaPath := filepath.Join(inputDir, "Photos from 2019", "IMG_20190215_193501.MP4")
			writeTestFile(mediaPath, "video-bytes")
			writeTestFile(mediaPath+".json", `{"photoTakenTime": {"timestamp": "1550259301"}}`)

			ctx := testContext(inputDir, outputDir,
				config.WithAlbumBehavior(config.AlbumBehaviorNothing),
				config.WithDateDivision(config.DateDivisionYear))
			runStages(ctx)

			target := filepath.Join(outputDir, "ALL_PHOTOS", "2019", "IMG_20190215_193501.MP4")
			info, err := os.Stat(target)
			Expect(err).To(BeNil())
			Expect(info.Mode().IsRegular()).To(BeTrue())

			e := ctx.Collection.Entities()[0]
			Expect(e.Primary.TargetPath).To(Equal(target))
			Expect(e.Primary.IsShortcut).To(BeFalse())
		})

		It("moves secondaries too", func() {
			writeTestFile(filepath.Join(inputDir, "Photos from 2022", "a.jpg"), "same-bytes")
			writeTestFile(filepath.Join(inputDir, "Vacation", "a.jpg"), "same-bytes")

			ctx := testContext(inputDir, outputDir,
				config.WithAlbumBehavior(config.AlbumBehaviorNothing))
			runStages(ctx)

			entries, err := os.ReadDir(filepath.Join(outputDir, "ALL_PHOTOS"))
			Expect(err).To(BeNil())
			Expect(entries).To(HaveLen(2)) // a.jpg and a(1).jpg

			_, err = os.Stat(filepath.Join(outputDir, "Vacation"))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})
	})

	Describe("shortcut strategy", func() {
		It("keeps one physical copy and shortcuts the album", func() {
			writeTestFile(filepath.Join(inputDir, "Photos from 2022", "a.jpg"), "same-bytes")
			writeTestFile(filepath.Join(inputDir, "Vacation 🏖️", "a.jpg"), "same-bytes")

			ctx := testContext(inputDir, outputDir,
				config.WithAlbumBehavior(config.AlbumBehaviorShortcut))
			runStages(ctx)

			Expect(ctx.Collection.Len()).To(Equal(1))

			physical := filepath.Join(outputDir, "ALL_PHOTOS", "a.jpg")
			info, err := os.Stat(physical)
			Expect(err).To(BeNil())
			Expect(info.Mode().IsRegular()).To(BeTrue())

			link := filepath.Join(outputDir, "Vacation 🏖️", "a.jpg")
			resolved, err := filepath.EvalSymlinks(link)
			Expect(err).To(BeNil())
			expected, err := filepath.EvalSymlinks(physical)
			Expect(err).To(BeNil())
			Expect(resolved).To(Equal(expected))

			e := ctx.Collection.Entities()[0]
			Expect(e.Primary.IsShortcut).To(BeFalse())
			Expect(e.Secondaries[0].IsShortcut).To(BeTrue())
			Expect(e.Secondaries[0].TargetPath).To(Equal(link))
		})

		It("creates a shortcut even when the album has no secondary copy", func() {
			mediaPath := filepath.Join(inputDir, "Trip", "x.jpg")
			writeTestFile(mediaPath, "bytes")

			ctx := testContext(inputDir, outputDir,
				config.WithAlbumBehavior(config.AlbumBehaviorShortcut))
			runStages(ctx)

			// The single album copy is the primary; the album folder still
			// carries a shortcut to the moved file.
			physical := filepath.Join(outputDir, "ALL_PHOTOS", "x.jpg")
			_, err := os.Stat(physical)
			Expect(err).To(BeNil())

			link := filepath.Join(outputDir, "Trip", "x.jpg")
			resolved, err := filepath.EvalSymlinks(link)
			Expect(err).To(BeNil())
			expected, err := filepath.EvalSymlinks(physical)
			Expect(err).To(BeNil())
			Expect(resolved).To(Equal(expected))
		})
	})

	Describe("duplicate-copy strategy", func() {
		It("copies the entity into each album folder", func() {
			writeTestFile(filepath.Join(inputDir, "Photos from 2022", "a.jpg"), "same-bytes")
			writeTestFile(filepath.Join(inputDir, "Vacation", "a.jpg"), "same-bytes")

			ctx := testContext(inputDir, outputDir,
				config.WithAlbumBehavior(config.AlbumBehaviorDuplicateCopy))
			runStages(ctx)

			physical := filepath.Join(outputDir, "ALL_PHOTOS", "a.jpg")
			info, err := os.Stat(physical)
			Expect(err).To(BeNil())
			Expect(info.Mode().IsRegular()).To(BeTrue())

			albumCopy := filepath.Join(outputDir, "Vacation", "a.jpg")
			info, err = os.Lstat(albumCopy)
			Expect(err).To(BeNil())
			Expect(info.Mode().IsRegular()).To(BeTrue())

			e := ctx.Collection.Entities()[0]
			Expect(e.Secondaries[0].IsShortcut).To(BeFalse())
		})
	})

	Describe("reverse-shortcut strategy", func() {
		It("moves album copies physically and shortcuts ALL_PHOTOS to the best one", func() {
			writeTestFile(filepath.Join(inputDir, "Photos from 2021", "x.jpg"), "same-bytes")
			writeTestFile(filepath.Join(inputDir, "Trip", "x.jpg"), "same-bytes")
			writeTestFile(filepath.Join(inputDir, "Favorites", "x.jpg"), "same-bytes")

			ctx := testContext(inputDir, outputDir,
				config.WithAlbumBehavior(config.AlbumBehaviorReverseShortcut))
			runStages(ctx)

			tripCopy := filepath.Join(outputDir, "Trip", "x.jpg")
			info, err := os.Lstat(tripCopy)
			Expect(err).To(BeNil())
			Expect(info.Mode().IsRegular()).To(BeTrue())

			favCopy := filepath.Join(outputDir, "Favorites", "x.jpg")
			info, err = os.Lstat(favCopy)
			Expect(err).To(BeNil())
			Expect(info.Mode().IsRegular()).To(BeTrue())

			link := filepath.Join(outputDir, "ALL_PHOTOS", "x.jpg")
			resolved, err := filepath.EvalSymlinks(link)
			Expect(err).To(BeNil())
			expected, err := filepath.EvalSymlinks(tripCopy)
			Expect(err).To(BeNil())
			Expect(resolved).To(Equal(expected))

			e := ctx.Collection.Entities()[0]
			Expect(e.Primary.IsShortcut).To(BeTrue())
			Expect(e.Primary.TargetPath).To(Equal(link))
		})

		It("falls back to a plain move without album copies", func() {
			writeTestFile(filepath.Join(inputDir, "Photos from 2021", "x.jpg"), "bytes")

			ctx := testContext(inputDir, outputDir,
				config.WithAlbumBehavior(config.AlbumBehaviorReverseShortcut))
			runStages(ctx)

			info, err := os.Lstat(filepath.Join(outputDir, "ALL_PHOTOS", "x.jpg"))
			Expect(err).To(BeNil())
			Expect(info.Mode().IsRegular()).To(BeTrue())
		})
	})

	Describe("json strategy", func() {
		It("writes the albums-info manifest", func() {
			for _, name := range []string{"p1.jpg", "p2.jpg"} {
				writeTestFile(filepath.Join(inputDir, "Photos from 2021", name), "bytes-"+name)
				writeTestFile(filepath.Join(inputDir, "Album A", name), "bytes-"+name)
				writeTestFile(filepath.Join(inputDir, "Album B", name), "bytes-"+name)
			}

			ctx := testContext(inputDir, outputDir,
				config.WithAlbumBehavior(config.AlbumBehaviorJSON))
			runStages(ctx)

			data, err := os.ReadFile(filepath.Join(outputDir, "albums-info.json"))
			Expect(err).To(BeNil())

			manifest := struct {
				Albums map[string][]struct {
					OriginalFilename            string `json:"originalFilename"`
					PrimaryRelativePathInOutput string `json:"primaryRelativePathInOutput"`
					AlbumRelativePathUnderAlbum string `json:"albumRelativePathUnderAlbums"`
				} `json:"albums"`
				Metadata struct {
					Generated     string `json:"generated"`
					TotalAlbums   int    `json:"total_albums"`
					TotalEntities int    `json:"total_entities"`
					Strategy      string `json:"strategy"`
				} `json:"metadata"`
			}{}
			Expect(json.Unmarshal(data, &manifest)).To(Succeed())

			Expect(manifest.Albums).To(HaveLen(2))
			Expect(manifest.Metadata.Strategy).To(Equal("json"))
			Expect(manifest.Metadata.TotalAlbums).To(Equal(2))

			for _, albumName := range []string{"Album A", "Album B"} {
				entries := manifest.Albums[albumName]
				Expect(entries).To(HaveLen(2))
				for _, entry := range entries {
					Expect(strings.HasPrefix(entry.PrimaryRelativePathInOutput, "ALL_PHOTOS/")).To(BeTrue())
				}
			}

			// Secondaries are parked under _Duplicates, never in ALL_PHOTOS.
			allPhotos, err := os.ReadDir(filepath.Join(outputDir, "ALL_PHOTOS"))
			Expect(err).To(BeNil())
			Expect(allPhotos).To(HaveLen(2))

			_, err = os.Stat(filepath.Join(outputDir, "_Duplicates"))
			Expect(err).To(BeNil())
		})
	})

	Describe("target directories", func() {
		It("places partner-shared entities under PARTNER_SHARED", func() {
			mediaPath := filepath.Join(inputDir, "Photos from 2022", "a.jpg")
			writeTestFile(mediaPath, "AAA")
			writeTestFile(mediaPath+".json", `{"googlePhotosOrigin": {"fromPartnerSharing": {}}, "photoTakenTime": {"timestamp": "1640995200"}}`)

			ctx := testContext(inputDir, outputDir,
				config.WithAlbumBehavior(config.AlbumBehaviorNothing),
				config.WithDateDivision(config.DateDivisionYear))
			runStages(ctx)

			_, err := os.Stat(filepath.Join(outputDir, "PARTNER_SHARED", "2022", "a.jpg"))
			Expect(err).To(BeNil())
		})

		It("uses date-unknown for dateless entities", func() {
			writeTestFile(filepath.Join(inputDir, "SomeAlbum", "mystery.jpg"), "AAA")

			ctx := testContext(inputDir, outputDir,
				config.WithAlbumBehavior(config.AlbumBehaviorNothing),
				config.WithDateDivision(config.DateDivisionYearMonth))
			runStages(ctx)

			_, err := os.Stat(filepath.Join(outputDir, "ALL_PHOTOS", "date-unknown", "mystery.jpg"))
			Expect(err).To(BeNil())
		})

		It("applies year-month-day division", func() {
			mediaPath := filepath.Join(inputDir, "Photos from 2019", "a.jpg")
			writeTestFile(mediaPath, "AAA")
			writeTestFile(mediaPath+".json", `{"photoTakenTime": {"timestamp": "1550259301"}}`)

			ctx := testContext(inputDir, outputDir,
				config.WithAlbumBehavior(config.AlbumBehaviorNothing),
				config.WithDateDivision(config.DateDivisionYearMonthDay))
			runStages(ctx)

			_, err := os.Stat(filepath.Join(outputDir, "ALL_PHOTOS", "2019", "02", "15", "a.jpg"))
			Expect(err).To(BeNil())
		})
	})

	Describe("dry run", func() {
		It("touches nothing", func() {
			mediaPath := filepath.Join(inputDir, "Photos from 2019", "a.jpg")
			writeTestFile(mediaPath, "AAA")

			ctx := testContext(inputDir, outputDir,
				config.WithAlbumBehavior(config.AlbumBehaviorNothing),
				config.WithDryRun(true))
			runStages(ctx)

			_, err := os.Stat(mediaPath)
			Expect(err).To(BeNil())

			_, err = os.Stat(filepath.Join(outputDir, "ALL_PHOTOS"))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})
	})

	Describe("moved file times", func() {
		It("sets the modification time to the resolved date", func() {
			mediaPath := filepath.Join(inputDir, "Photos from 2019", "a.jpg")
			writeTestFile(mediaPath, "AAA")
			writeTestFile(mediaPath+".json", `{"photoTakenTime": {"timestamp": "1550259301"}}`)

			ctx := testContext(inputDir, outputDir,
				config.WithAlbumBehavior(config.AlbumBehaviorNothing))
			runStages(ctx)

			info, err := os.Stat(filepath.Join(outputDir, "ALL_PHOTOS", "a.jpg"))
			Expect(err).To(BeNil())
			Expect(info.ModTime().UTC()).To(Equal(time.Unix(1550259301, 0).UTC()))
		})
	})
})

var _ = Describe("NewStrategy", func() {
	It("builds every configured behavior", func() {
		for _, behavior := range []string{
			config.AlbumBehaviorNothing,
			config.AlbumBehaviorShortcut,
			config.AlbumBehaviorDuplicateCopy,
			config.AlbumBehaviorReverseShortcut,
			config.AlbumBehaviorJSON,
		} {
			strategy, err := NewStrategy(behavior)
			Expect(err).To(BeNil())
			Expect(strategy).ToNot(BeNil())
		}
	})

	It("rejects unknown behaviors", func() {
		_, err := NewStrategy("whatever")
		Expect(err).ToNot(BeNil())
	})
})

var _ = Describe("albumOfFile", func() {
	It("infers the album from the source directory", func() {
		e := entity.NewMediaEntity(entity.NewFileEntity("/in/Photos from 2021/x.jpg", true))
		e.AddAlbum("Trip", "/in/Trip")
		e.AddAlbum("Favorites", "/in/Favorites")

		file := entity.NewFileEntity("/in/Favorites/x.jpg", false)
		Expect(albumOfFile(e, file)).To(Equal("Favorites"))
	})

	It("falls back to the first album when nothing matches", func() {
		e := entity.NewMediaEntity(entity.NewFileEntity("/in/Photos from 2021/x.jpg", true))
		e.AddAlbum("Trip", "/in/Trip")

		file := entity.NewFileEntity("/in/Elsewhere/x.jpg", false)
		Expect(albumOfFile(e, file)).To(Equal("Trip"))
	})
})
