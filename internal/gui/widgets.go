package gui

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"codeberg.org/snonux/storybuddy/internal/session"
)

// ImageDisplay is a custom widget for displaying one illustration
type ImageDisplay struct {
	widget.BaseWidget

	container   *fyne.Container
	imageCanvas *canvas.Image
	imageLabel  *widget.Label

	currentURL string
}

// NewImageDisplay creates a new image display widget
func NewImageDisplay() *ImageDisplay {
	d := &ImageDisplay{}

	d.imageCanvas = canvas.NewImageFromResource(nil)
	d.imageCanvas.FillMode = canvas.ImageFillContain
	d.imageCanvas.SetMinSize(fyne.NewSize(256, 192))

	d.imageLabel = widget.NewLabel("")
	d.imageLabel.Alignment = fyne.TextAlignCenter

	d.container = container.NewBorder(
		nil,
		d.imageLabel,
		nil, nil,
		d.imageCanvas,
	)

	d.ExtendBaseWidget(d)
	return d
}

// CreateRenderer implements fyne.Widget
func (d *ImageDisplay) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(d.container)
}

// SetLoading shows that url is being fetched
func (d *ImageDisplay) SetLoading(url string) {
	d.currentURL = url
	d.imageCanvas.Image = nil
	d.imageCanvas.Refresh()
	d.imageLabel.SetText("Loading illustration...")
}

// SetImageData decodes and shows downloaded image bytes
func (d *ImageDisplay) SetImageData(url string, data []byte) {
	d.currentURL = url

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		d.SetFailed(url, fmt.Errorf("decoding image: %w", err))
		return
	}

	d.imageCanvas.Image = img
	d.imageCanvas.Refresh()
	d.imageLabel.SetText("")
}

// SetFailed keeps the panel readable when an illustration is unavailable
func (d *ImageDisplay) SetFailed(url string, err error) {
	d.currentURL = url
	d.imageCanvas.Image = nil
	d.imageCanvas.Refresh()
	d.imageLabel.SetText("Illustration unavailable")
}

// storyPanel is one paragraph with the illustration of the same index.
type storyPanel struct {
	text  *widget.Label
	image *ImageDisplay
	row   *fyne.Container
}

// StoryView shows the story as paragraphs paired with illustrations.
type StoryView struct {
	widget.BaseWidget

	placeholder *widget.Label
	list        *fyne.Container
	scroll      *container.Scroll

	story  string
	panels []*storyPanel
	images []string
}

// NewStoryView creates an empty story view
func NewStoryView() *StoryView {
	v := &StoryView{}

	v.placeholder = widget.NewLabel("Type a topic or use the microphone, then press Generate.")
	v.placeholder.Wrapping = fyne.TextWrapWord
	v.list = container.NewVBox(v.placeholder)
	v.scroll = container.NewVScroll(v.list)

	v.ExtendBaseWidget(v)
	return v
}

// CreateRenderer implements fyne.Widget
func (v *StoryView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.scroll)
}

// SetStory rebuilds the panels when the story text changed and returns
// the indexes of illustrations that are new since the last call.
func (v *StoryView) SetStory(st session.State) []int {
	if st.Story != v.story {
		v.story = st.Story
		v.images = nil
		v.panels = nil
		v.list.RemoveAll()

		if st.Story == "" {
			v.list.Add(v.placeholder)
		}
		for _, paragraph := range session.Paragraphs(st.Story) {
			text := widget.NewLabel(paragraph)
			text.Wrapping = fyne.TextWrapWord
			display := NewImageDisplay()
			display.Hide()
			row := container.NewBorder(nil, nil, display, nil, text)
			v.panels = append(v.panels, &storyPanel{text: text, image: display, row: row})
			v.list.Add(row)
		}
		v.list.Refresh()
		v.scroll.ScrollToTop()
	}

	var added []int
	for i := len(v.images); i < len(st.Images) && i < len(v.panels); i++ {
		v.panels[i].image.SetLoading(st.Images[i])
		v.panels[i].image.Show()
		added = append(added, i)
	}
	v.images = append([]string{}, st.Images...)
	return added
}

// ShowImage fills panel index with a finished download
func (v *StoryView) ShowImage(job *ImageJob) {
	if job.Index >= len(v.panels) || job.Index >= len(v.images) || v.images[job.Index] != job.URL {
		return
	}
	display := v.panels[job.Index].image
	if job.Status == StatusLoaded {
		display.SetImageData(job.URL, job.Data)
	} else {
		display.SetFailed(job.URL, job.Error)
	}
}
