package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/and161185/homeheaven/internal/api"
	"github.com/and161185/homeheaven/internal/model"
	"github.com/and161185/homeheaven/internal/service"
	"github.com/and161185/homeheaven/internal/views"
)

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"register":     cmdRegister,
	"login":        cmdLogin,
	"demo-login":   cmdDemoLogin,
	"logout":       cmdLogout,
	"whoami":       cmdWhoami,
	"menu":         cmdMenu,
	"listings":     cmdListings,
	"show":         cmdShow,
	"create":       cmdCreate,
	"edit":         cmdEdit,
	"rm":           cmdRemove,
	"wishlist":     cmdWishlist,
	"wishlist-add": cmdWishlistAdd,
	"profile":      cmdProfile,
	"avatar":       cmdAvatar,
	"chat":         cmdChat,
}

func newFlags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

// idArg parses the single positional id of fs.
func idArg(fs *pflag.FlagSet) (int64, error) {
	if fs.NArg() < 1 {
		return 0, fmt.Errorf("%w: %s needs <id>", errUsage, fs.Name())
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad id %q", errUsage, fs.Arg(0))
	}
	return id, nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlags("register")
	email := fs.String("email", "", "email")
	username := fs.StringP("username", "u", "", "username")
	password := fs.StringP("password", "p", "", "password (prompted when empty)")
	if err := parse(fs, args); err != nil {
		return err
	}
	form := service.SignUp{Email: *email, Username: *username, Password: *password, Confirm: *password}
	if *password == "" {
		var err error
		if form.Password, err = a.readSecret("Password: "); err != nil {
			return err
		}
		if form.Confirm, err = a.readSecret("Confirm password: "); err != nil {
			return err
		}
	}
	if err := a.auth.Register(ctx, form); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "registered; now run: hh login --email", form.Email)
	return nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "email")
	password := fs.StringP("password", "p", "", "password (prompted when empty)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("%w: login needs --email", errUsage)
	}
	pw := *password
	if pw == "" {
		var err error
		if pw, err = a.readSecret("Password: "); err != nil {
			return err
		}
	}
	s, err := a.auth.Login(ctx, api.Credentials{Email: *email, Password: pw})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "ok, logged in as user %s until %s\n", s.Identity.Subject, s.Identity.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}

func cmdDemoLogin(ctx context.Context, a *app, _ []string) error {
	s, err := a.auth.DemoLogin(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "ok, logged in as demo user %s\n", s.Identity.Subject)
	return nil
}

func cmdLogout(_ context.Context, a *app, _ []string) error {
	a.auth.Logout()
	fmt.Fprintln(a.out, "ok")
	return nil
}

func cmdWhoami(_ context.Context, a *app, _ []string) error {
	s := a.sessions.CurrentSession()
	_, valid := a.sessions.ValidCredential()
	out := map[string]any{"status": s.Status.String(), "valid": valid}
	if s.Authenticated() {
		out["user_id"] = s.Identity.Subject
		out["expires_at"] = s.Identity.ExpiresAt
		out["expires"] = humanize.Time(s.Identity.ExpiresAt)
	}
	printJSON(a.out, out)
	return nil
}

func cmdMenu(_ context.Context, a *app, _ []string) error {
	m := views.NewMenu(a.sessions, nil)
	defer m.Close()
	for _, it := range m.Items() {
		fmt.Fprintf(a.out, "%-10s %s\n", it.Label, it.Path)
	}
	return nil
}

func cmdListings(ctx context.Context, a *app, args []string) error {
	fs := newFlags("listings")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := parse(fs, args); err != nil {
		return err
	}
	ls, err := a.client.ListListings(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		printJSON(a.out, ls)
		return nil
	}
	printListings(a, ls)
	return nil
}

func printListings(a *app, ls []model.Listing) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRICE\tBEDS\tCITY\tTITLE")
	for _, l := range ls {
		beds := "-"
		if l.Bedrooms != nil {
			beds = strconv.Itoa(*l.Bedrooms)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", l.ID, formatPrice(l.Price), beds, l.City, l.Title)
	}
	_ = tw.Flush()
}

func formatPrice(p float64) string {
	return "$" + humanize.CommafWithDigits(p, 2)
}

func cmdShow(ctx context.Context, a *app, args []string) error {
	fs := newFlags("show")
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := idArg(fs)
	if err != nil {
		return err
	}
	l, err := a.client.GetListing(ctx, id)
	if err != nil {
		return err
	}
	printJSON(a.out, l)
	return nil
}

// draftFlags binds the editable listing fields to a flag set.
type draftFlags struct {
	fs           *pflag.FlagSet
	title        *string
	description  *string
	price        *string
	area         *string
	beds         *string
	baths        *string
	propertyType *string
	address      *string
	city         *string
	state        *string
	zip          *string
	images       *[]string
}

func bindDraft(fs *pflag.FlagSet) *draftFlags {
	return &draftFlags{
		fs:           fs,
		title:        fs.String("title", "", "title"),
		description:  fs.String("description", "", "description"),
		price:        fs.String("price", "", "price"),
		area:         fs.String("area", "", "area, sq ft"),
		beds:         fs.String("bedrooms", "", "bedrooms"),
		baths:        fs.String("bathrooms", "", "bathrooms"),
		propertyType: fs.String("type", "", "property type"),
		address:      fs.String("address", "", "street address"),
		city:         fs.String("city", "", "city"),
		state:        fs.String("state", "", "state"),
		zip:          fs.String("zip", "", "zip code"),
		images:       fs.StringArray("image", nil, "image file, optionally file=caption (up to 4)"),
	}
}

// apply copies the flags the user set onto d.
func (f *draftFlags) apply(d *model.ListingDraft) {
	set := func(name string, dst *string, v *string) {
		if f.fs.Changed(name) {
			*dst = *v
		}
	}
	set("title", &d.Title, f.title)
	set("description", &d.Description, f.description)
	set("price", &d.Price, f.price)
	set("area", &d.AreaSqft, f.area)
	set("bedrooms", &d.Bedrooms, f.beds)
	set("bathrooms", &d.Bathrooms, f.baths)
	set("type", &d.PropertyType, f.propertyType)
	set("address", &d.Address, f.address)
	set("city", &d.City, f.city)
	set("state", &d.State, f.state)
	set("zip", &d.ZipCode, f.zip)
}

func (f *draftFlags) attach(e *views.Editor) error {
	if len(*f.images) > model.MaxImageSlots {
		return fmt.Errorf("%w: at most %d images", errUsage, model.MaxImageSlots)
	}
	for i, arg := range *f.images {
		slot, err := readImage(arg)
		if err != nil {
			return err
		}
		if err := e.SetImage(i, slot); err != nil {
			return err
		}
	}
	return nil
}

// readImage loads "path" or "path=caption".
func readImage(arg string) (model.ImageSlot, error) {
	path, caption, _ := strings.Cut(arg, "=")
	b, err := os.ReadFile(path)
	if err != nil {
		return model.ImageSlot{}, fmt.Errorf("read image: %w", err)
	}
	return model.ImageSlot{Filename: filepath.Base(path), Payload: b, Caption: caption}, nil
}

func cmdCreate(ctx context.Context, a *app, args []string) error {
	fs := newFlags("create")
	df := bindDraft(fs)
	if err := parse(fs, args); err != nil {
		return err
	}

	e := views.NewEditor(a.coord, nil, a.log.Named("editor"))
	e.OpenCreate()
	e.Update(df.apply)
	if err := df.attach(e); err != nil {
		return err
	}
	if err := e.Submit(ctx); err != nil {
		return editorError(e, err)
	}
	for _, n := range e.Notices() {
		fmt.Fprintln(a.out, "warning:", n)
	}
	created := e.Listings()
	printJSON(a.out, created[len(created)-1])
	return nil
}

func cmdEdit(ctx context.Context, a *app, args []string) error {
	fs := newFlags("edit")
	df := bindDraft(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := idArg(fs)
	if err != nil {
		return err
	}
	if len(*df.images) > 0 {
		return fmt.Errorf("%w: images can only be attached on create", errUsage)
	}

	target, err := a.client.GetListing(ctx, id)
	if err != nil {
		return err
	}
	e := views.NewEditor(a.coord, []model.Listing{target}, a.log.Named("editor"))
	e.OpenEdit(target)
	e.Update(df.apply)
	if err := e.Submit(ctx); err != nil {
		return editorError(e, err)
	}
	printJSON(a.out, e.Listings()[0])
	return nil
}

func editorError(e *views.Editor, err error) error {
	if msg := e.Message(); msg != "" {
		return fmt.Errorf("%s (%w)", msg, err)
	}
	return err
}

func cmdRemove(ctx context.Context, a *app, args []string) error {
	fs := newFlags("rm")
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := idArg(fs)
	if err != nil {
		return err
	}
	if err := a.client.DeleteListing(ctx, a.sessions.CurrentSession().Credential, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "ok")
	return nil
}

func cmdWishlist(ctx context.Context, a *app, _ []string) error {
	ls, err := a.wishlist.List(ctx)
	if err != nil {
		return err
	}
	printListings(a, ls)
	return nil
}

func cmdWishlistAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("wishlist-add")
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := idArg(fs)
	if err != nil {
		return err
	}
	if err := a.wishlist.Add(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "ok")
	return nil
}

func cmdProfile(ctx context.Context, a *app, _ []string) error {
	p, err := a.profile.Load(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s <%s>\n", p.Username, p.Email)
	if p.AvatarURL != "" {
		fmt.Fprintln(a.out, "avatar:", p.AvatarURL)
	}
	fmt.Fprintf(a.out, "%d listing(s)\n", len(p.OwnedListings))
	printListings(a, p.OwnedListings)
	return nil
}

func cmdAvatar(ctx context.Context, a *app, args []string) error {
	fs := newFlags("avatar")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("%w: avatar needs <file>", errUsage)
	}
	img, err := readImage(fs.Arg(0))
	if err != nil {
		return err
	}
	p, err := a.profile.UploadAvatar(ctx, img)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "avatar:", p.AvatarURL)
	return nil
}

func cmdChat(ctx context.Context, a *app, args []string) error {
	fs := newFlags("chat")
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := idArg(fs)
	if err != nil {
		return err
	}
	conv := service.NewConversation(a.client, a.sessions, id, service.WithChatLogger(a.log.Named("chat")))

	if fs.NArg() > 1 {
		return chatOnce(ctx, a, conv, strings.Join(fs.Args()[1:], " "))
	}
	sc := bufio.NewScanner(a.in)
	fmt.Fprint(a.out, "> ")
	for sc.Scan() {
		// failed exchanges are already in the transcript
		_ = chatOnce(ctx, a, conv, sc.Text())
		fmt.Fprint(a.out, "> ")
	}
	fmt.Fprintln(a.out)
	return sc.Err()
}

func chatOnce(ctx context.Context, a *app, conv *service.Conversation, text string) error {
	added, err := conv.Send(ctx, text)
	for _, e := range added {
		if e.Sender == model.SenderAI {
			fmt.Fprintln(a.out, "ai:", e.Text)
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
