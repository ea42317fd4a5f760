package browser

import (
	"fmt"

	"github.com/chromedp/chromedp"
)

// PageSnapshot is a compact textual view of the current page handed to the
// model: interactive elements carry numeric IDs in brackets and are tagged
// with a matching data-ai-id attribute for later targeting.
type PageSnapshot struct {
	URL   string
	Title string
	Tree  string
}

// snapshotJS walks the visible DOM and renders a numbered element tree.
// Text is clipped and off-viewport elements skipped to keep the tree small.
const snapshotJS = `(() => {
	let idCounter = 1;
	const interactiveTags = new Set(['a', 'button', 'input', 'textarea', 'select', 'details', 'summary']);

	document.querySelectorAll('[data-ai-id]').forEach(el => el.removeAttribute('data-ai-id'));

	function cleanText(text) {
		if (!text) return '';
		let res = text.replace(/\s+/g, ' ').trim();
		if (res.length > 100) {
			return res.slice(0, 100) + '...';
		}
		return res;
	}

	function isVisible(el) {
		if (!el || !el.getBoundingClientRect) return false;
		if (el.getAttribute('aria-hidden') === 'true') return false;

		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);

		const inViewport = (
			rect.top < window.innerHeight &&
			rect.bottom > 0 &&
			rect.left < window.innerWidth &&
			rect.right > 0
		);

		return rect.width > 0 && rect.height > 0 &&
			style.visibility !== 'hidden' &&
			style.display !== 'none' &&
			style.opacity !== '0' &&
			inViewport;
	}

	function isInteractive(el) {
		const tag = el.tagName.toLowerCase();
		const role = (el.getAttribute('role') || '').toLowerCase();
		const tabIndex = el.getAttribute('tabindex');

		return interactiveTags.has(tag) ||
			['button', 'link', 'checkbox', 'menuitem', 'tab', 'textbox', 'combobox', 'option'].includes(role) ||
			(tabIndex !== null && tabIndex !== '-1') ||
			el.onclick != null;
	}

	function escapeAttr(value) {
		return value.replace(/"/g, '\\"');
	}

	function inDialog(el) {
		let cur = el;
		while (cur && cur !== document.body) {
			const role = (cur.getAttribute('role') || '').toLowerCase();
			if (role === 'dialog' || role === 'alertdialog' || cur.getAttribute('aria-modal') === 'true') {
				return true;
			}
			cur = cur.parentElement;
		}
		return false;
	}

	function getKind(el) {
		const tag = el.tagName.toLowerCase();
		const role = (el.getAttribute('role') || '').toLowerCase();
		const type = (el.getAttribute('type') || '').toLowerCase();

		if (tag === 'button' || role === 'button') return 'button';
		if (tag === 'a' || role === 'link') return 'link';
		if (tag === 'input') {
			if (type === 'checkbox') return 'checkbox';
			if (type === 'radio') return 'radio';
			if (type === 'search') return 'search';
			return 'input';
		}
		return '';
	}

	function findActiveModal() {
		const selectors = ['[role="dialog"]', '[role="alertdialog"]', '[aria-modal="true"]', '.modal', '.overlay'];
		const candidates = Array.from(document.querySelectorAll(selectors.join(',')));
		let best = null;
		let bestZ = -Infinity;
		for (const el of candidates) {
			if (!isVisible(el)) continue;
			let z = parseInt(window.getComputedStyle(el).zIndex || '0', 10);
			if (Number.isNaN(z)) z = 0;
			if (z >= bestZ) {
				bestZ = z;
				best = el;
			}
		}
		return best;
	}

	const activeModal = findActiveModal();
	const root = activeModal || document.body;
	const header = activeModal ? "=== ACTIVE DIALOG ===\n" : "";

	function traverse(node, depth) {
		if (!node || depth > 20) return '';

		if (node.nodeType === Node.TEXT_NODE) {
			const text = cleanText(node.textContent);
			if (text.length > 2) {
				return '  '.repeat(depth) + text + '\n';
			}
			return '';
		}

		if (node.nodeType !== Node.ELEMENT_NODE) return '';

		const el = node;
		if (!isVisible(el)) return '';

		let output = '';
		const prefix = '  '.repeat(depth);
		const tag = el.tagName.toLowerCase();

		if (['script', 'style', 'svg', 'path', 'noscript'].includes(tag)) return '';

		if (isInteractive(el)) {
			const aiId = idCounter++;
			el.setAttribute('data-ai-id', String(aiId));

			const parts = ['<' + tag];

			let label = cleanText(el.innerText || el.textContent || '');
			if (!label) label = cleanText(el.getAttribute('aria-label') || '');
			if (!label) label = cleanText(el.getAttribute('title') || '');
			if ((tag === 'input' || tag === 'textarea') && !label) {
				label = cleanText(el.getAttribute('placeholder') || '');
			}
			if (label) parts.push('label="' + escapeAttr(label) + '"');

			const kind = getKind(el);
			if (kind) parts.push('kind="' + kind + '"');

			if (inDialog(el)) parts.push('context="dialog"');

			output += prefix + '[' + aiId + '] ' + parts.join(' ') + '>\n';
		} else if (['h1', 'h2', 'h3', 'h4', 'h5'].includes(tag)) {
			output += prefix + '<' + tag + '> ' + cleanText(el.innerText) + '\n';
		}

		for (const child of el.childNodes) {
			output += traverse(child, depth + 1);
		}

		return output;
	}

	return header + traverse(root, 0);
})()`

// Snapshot captures the page's URL, title and numbered element tree.
func (s *Session) Snapshot() (*PageSnapshot, error) {
	var tree, loc, title string
	if err := chromedp.Run(s.ctx,
		chromedp.Evaluate(snapshotJS, &tree),
		chromedp.Location(&loc),
		chromedp.Title(&title),
	); err != nil {
		return nil, fmt.Errorf("snapshot failed: %w", err)
	}

	return &PageSnapshot{
		URL:   loc,
		Title: title,
		Tree:  tree,
	}, nil
}
