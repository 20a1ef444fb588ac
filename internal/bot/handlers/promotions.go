package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/spinhall-bot/internal/bot/keyboard"
	"github.com/Proton-105/spinhall-bot/internal/domain"
	"github.com/Proton-105/spinhall-bot/internal/i18n"
	"github.com/Proton-105/spinhall-bot/internal/payments"
	"github.com/Proton-105/spinhall-bot/internal/querycache"
)

// exampleDeposit is the amount used for the bonus preview line when the
// campaign has no minimum deposit.
var exampleDeposit = decimal.NewFromInt(100)

// Promotions shows bonus campaigns and VIP tiers.
type Promotions struct {
	d *Deps
}

func NewPromotions(d *Deps) *Promotions {
	return &Promotions{d: d.withDefaults()}
}

// Bonuses lists active campaigns with a preview of what a deposit would earn.
func (h *Promotions) Bonuses() Handler {
	return func(c telebot.Context) error {
		t := h.d.tr(c)
		bonuses, err := h.d.bonuses(c)
		if err != nil {
			return err
		}

		var b strings.Builder
		b.WriteString(t.T("bonuses.title"))
		shown := 0
		for _, bonus := range bonuses {
			if !bonus.Active {
				continue
			}
			shown++
			b.WriteString("\n\n" + bonusText(t, bonus))
		}
		if shown == 0 {
			b.WriteString("\n\n" + t.T("bonuses.empty"))
		} else {
			b.WriteString("\n\n" + t.T("bonuses.disclaimer"))
		}

		kb := keyboard.NewInlineKeyboard().AddRow(h.d.Keyboard.NavButton(t, "main_menu.deposit", "/deposit"))
		return reply(c, b.String(), h.d.Keyboard.Render(kb))
	}
}

// VIP lists the loyalty tiers and marks the chat's current one.
func (h *Promotions) VIP() Handler {
	return func(c telebot.Context) error {
		ctx := RequestContext(c)
		chatID := ChatID(c)
		t := h.d.tr(c)

		var levels []domain.VIPLevel
		err := h.d.authed(c, func(token string) error {
			var err error
			levels, err = querycache.Get(ctx, h.d.Queries, chatPrefix(chatID)+"vip", func(ctx context.Context) ([]domain.VIPLevel, error) {
				return h.d.Backend.VIPLevels(ctx, token)
			})
			return err
		})
		if err != nil {
			return err
		}

		current := -1
		if sess, err := h.d.Sessions.Current(ctx, chatID); err == nil && sess != nil && sess.User != nil {
			current = sess.User.VIPLevel
		}

		var b strings.Builder
		b.WriteString(t.T("vip.title"))
		if len(levels) == 0 {
			b.WriteString("\n\n" + t.T("vip.empty"))
		}
		for _, l := range levels {
			mark := "▫️"
			if l.Level == current {
				mark = "👑"
			}
			b.WriteString("\n\n" + mark + " " + t.Tf("vip.level", map[string]string{
				"Level":      strconv.Itoa(l.Level),
				"Name":       l.Name,
				"Points":     strconv.FormatInt(l.MinPoints, 10),
				"Cashback":   l.CashbackPercent.String(),
				"Limit":      limitText(t, l.WithdrawalLimit),
				"Multiplier": l.BonusMultiplier.String(),
			}))
		}
		return reply(c, b.String(), nil)
	}
}

// bonuses loads the campaigns visible to the chat through the query cache.
func (d *Deps) bonuses(c telebot.Context) ([]domain.Bonus, error) {
	var list []domain.Bonus
	err := d.authed(c, func(token string) error {
		var err error
		list, err = querycache.Get(RequestContext(c), d.Queries, chatPrefix(ChatID(c))+"bonuses", func(ctx context.Context) ([]domain.Bonus, error) {
			return d.Backend.Bonuses(ctx, token)
		})
		return err
	})
	return list, err
}

func bonusText(t i18n.Translator, b domain.Bonus) string {
	var s strings.Builder
	s.WriteString("🎁 " + b.Name)
	if b.Description != "" {
		s.WriteString("\n" + b.Description)
	}
	s.WriteString("\n" + t.Tf("bonuses.terms", map[string]string{
		"Percent":    b.Percentage.String(),
		"Max":        limitText(t, b.MaxAmount),
		"MinDeposit": b.MinDeposit.StringFixed(2),
		"Wagering":   b.Wagering.String(),
	}))
	if !b.ValidUntil.IsZero() {
		s.WriteString("\n" + t.Tf("bonuses.valid_until", map[string]string{"Date": b.ValidUntil.Format("2006-01-02")}))
	}

	deposit := exampleDeposit
	if b.MinDeposit.GreaterThan(deposit) {
		deposit = b.MinDeposit
	}
	if p := payments.PreviewBonus(b, deposit); p.Eligible {
		s.WriteString("\n" + t.Tf("bonuses.example", map[string]string{
			"Deposit":  deposit.StringFixed(2),
			"Bonus":    p.Bonus.StringFixed(2),
			"Wagering": p.Wagering.StringFixed(2),
		}))
	}
	return s.String()
}
