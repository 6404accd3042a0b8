package rodbrowser

// resolveJS evaluates a browser.Selector (passed as JSON) in the page and
// returns the matching nodes in document order. Role names, text and has-text
// filters match case-insensitive substrings of whitespace-normalized text,
// unless the selector is exact, which compares the whole normalized text.
const resolveJS = `(sel) => {
	const norm = (s) => (s || '').replace(/\s+/g, ' ').trim();
	const lower = (s) => norm(s).toLowerCase();
	const skip = new Set(['SCRIPT', 'STYLE', 'NOSCRIPT', 'TEMPLATE', 'HEAD', 'META', 'LINK', 'TITLE']);

	const implicitRole = (el) => {
		const tag = el.tagName;
		switch (tag) {
		case 'A': case 'AREA': return el.hasAttribute('href') ? 'link' : '';
		case 'BUTTON': case 'SUMMARY': return 'button';
		case 'H1': case 'H2': case 'H3': case 'H4': case 'H5': case 'H6': return 'heading';
		case 'SELECT': return (el.multiple || el.size > 1) ? 'listbox' : 'combobox';
		case 'TEXTAREA': return 'textbox';
		case 'TD': return 'cell';
		case 'TH': return 'columnheader';
		case 'TR': return 'row';
		case 'TABLE': return 'table';
		case 'UL': case 'OL': return 'list';
		case 'LI': return 'listitem';
		case 'NAV': return 'navigation';
		case 'DIALOG': return 'dialog';
		case 'OPTION': return 'option';
		case 'IMG': return el.getAttribute('alt') === '' ? 'presentation' : 'img';
		case 'INPUT': {
			const type = (el.getAttribute('type') || 'text').toLowerCase();
			if (['button', 'submit', 'reset', 'image'].includes(type)) return 'button';
			if (type === 'checkbox' || type === 'radio') return type;
			if (type === 'search') return el.hasAttribute('list') ? 'combobox' : 'searchbox';
			if (['text', 'email', 'tel', 'url', 'password'].includes(type)) return el.hasAttribute('list') ? 'combobox' : 'textbox';
			return '';
		}
		}
		return '';
	};
	const roleOf = (el) => {
		const explicit = norm(el.getAttribute('role')).split(' ')[0];
		return explicit || implicitRole(el);
	};
	const nameOf = (el, role) => {
		const ids = el.getAttribute('aria-labelledby');
		if (ids) {
			const text = ids.split(/\s+/).map((id) => {
				const n = document.getElementById(id);
				return n ? n.textContent : '';
			}).join(' ');
			if (norm(text)) return norm(text);
		}
		const aria = el.getAttribute('aria-label');
		if (norm(aria)) return norm(aria);
		if (el.labels && el.labels.length) return norm(Array.from(el.labels).map((l) => l.textContent).join(' '));
		if (el.tagName === 'INPUT') {
			const type = (el.type || '').toLowerCase();
			if (['button', 'submit', 'reset'].includes(type)) return norm(el.value);
			if (type === 'image') return norm(el.alt);
			return norm(el.getAttribute('title') || el.getAttribute('placeholder'));
		}
		if (el.tagName === 'IMG') return norm(el.alt);
		if (['textbox', 'combobox', 'searchbox', 'listbox', 'dialog', 'table', 'list', 'navigation'].includes(role)) {
			return norm(el.getAttribute('title') || el.getAttribute('placeholder'));
		}
		return norm(el.innerText || el.textContent) || norm(el.getAttribute('title'));
	};
	const ariaHidden = (el) => !!el.closest('[aria-hidden="true"]');

	const all = (root) => Array.from(root.querySelectorAll('*')).filter((el) => !skip.has(el.tagName));

	const anchor = (s, root) => {
		if (s.css) return Array.from(root.querySelectorAll(s.css));
		if (s.role) {
			const named = (el) => {
				if (!s.name) return true;
				const name = nameOf(el, s.role);
				return s.exact ? name === norm(s.name) : lower(name).includes(lower(s.name));
			};
			return all(root).filter((el) => roleOf(el) === s.role && !ariaHidden(el) && named(el));
		}
		if (s.text) {
			const hit = s.exact
				? (el) => norm(el.textContent) === norm(s.text)
				: (el) => lower(el.textContent).includes(lower(s.text));
			return all(root).filter((el) => hit(el) && !Array.from(el.children).some(hit));
		}
		return [];
	};

	const resolve = (s, base) => {
		const roots = s.scope ? resolve(s.scope, base) : [base];
		const seen = new Set();
		let out = [];
		for (const root of roots) {
			for (const el of anchor(s, root)) {
				if (!seen.has(el)) {
					seen.add(el);
					out.push(el);
				}
			}
		}
		if (s.hasText) {
			const want = lower(s.hasText);
			out = out.filter((el) => lower(el.textContent).includes(want));
		}
		if (s.has) {
			out = out.filter((el) => resolve(s.has, el).length > 0);
		}
		return s.first ? out.slice(0, 1) : out;
	};

	return resolve(sel, document);
}`

// visibleJS reports whether the element is rendered with a non-empty box.
const visibleJS = `() => {
	if (!this.isConnected) return false;
	const style = window.getComputedStyle(this);
	if (style.visibility === 'hidden' || style.display === 'none') return false;
	const rect = this.getBoundingClientRect();
	return rect.width > 0 && rect.height > 0;
}`

// readyStateJS returns document.readyState.
const readyStateJS = `() => document.readyState`

// navigationStatusJS returns the HTTP status of the last navigation, or 200
// when the browser does not expose it.
const navigationStatusJS = `() => {
	return window.performance?.getEntriesByType?.('navigation')?.[0]?.responseStatus || 200;
}`
